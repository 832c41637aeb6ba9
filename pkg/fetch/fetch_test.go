package fetch

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchDecodesAndNormalizes(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range src.Pix {
		src.Pix[i] = 0x40
	}
	body := encodePNG(t, src)

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	f := New(Options{UserAgent: "rashset-test"}, logger.NewTestLogger())
	img, err := f.Fetch(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)

	assert.Equal(t, "rashset-test", gotUA)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}, img.NRGBAAt(1, 1))
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/html":
			w.Write([]byte("<html>not an image</html>"))
		case "/huge":
			w.Write(make([]byte, 2048))
		}
	}))
	defer server.Close()

	f := New(Options{MaxBytes: 1024, Timeout: 2 * time.Second}, logger.NewTestLogger())

	tests := []struct {
		name string
		url  string
		kind errs.Kind
	}{
		{name: "not found", url: server.URL + "/missing", kind: errs.KindFetch},
		{name: "not an image", url: server.URL + "/html", kind: errs.KindDecode},
		{name: "body over cap", url: server.URL + "/huge", kind: errs.KindFetch},
		{name: "unreachable host", url: "http://127.0.0.1:1/x.jpg", kind: errs.KindFetch},
		{name: "malformed url", url: "http://[::1", kind: errs.KindFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := f.Fetch(context.Background(), tt.url)
			assert.Nil(t, img)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h 8-bit
// grayscale. It carries no pixel data, so only the dimensions can be read.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type 0, default compression/filter/interlace

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestFetchRejectsOversizedDimensions(t *testing.T) {
	small := encodePNG(t, image.NewGray(image.Rect(0, 0, 20, 20)))
	bomb := pngHeader(12000, 12000)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/small.png":
			w.Write(small)
		case "/bomb.png":
			w.Write(bomb)
		}
	}))
	defer server.Close()

	t.Run("default limit", func(t *testing.T) {
		f := New(Options{}, logger.NewTestLogger())
		img, err := f.Fetch(context.Background(), server.URL+"/bomb.png")
		assert.Nil(t, img)
		require.Error(t, err)
		assert.Equal(t, errs.KindDecode, errs.KindOf(err))
		assert.Contains(t, err.Error(), "12000x12000")
	})

	t.Run("configured limit", func(t *testing.T) {
		f := New(Options{MaxPixels: 399}, logger.NewTestLogger())
		_, err := f.Fetch(context.Background(), server.URL+"/small.png")
		assert.True(t, errs.IsDecode(err))

		f = New(Options{MaxPixels: 400}, logger.NewTestLogger())
		img, err := f.Fetch(context.Background(), server.URL+"/small.png")
		require.NoError(t, err)
		assert.Equal(t, 20, img.Bounds().Dx())
	})
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unused"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}, logger.NewTestLogger()).Fetch(ctx, server.URL)
	assert.True(t, errs.IsFetch(err))
}

func TestNormalize(t *testing.T) {
	t.Run("keeps color of transparent pixels", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 30, A: 0})

		dst := Normalize(src)
		assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 30, A: 0xff}, dst.NRGBAAt(0, 0))
	})

	t.Run("grayscale expands to three channels", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 1, 1))
		src.SetGray(0, 0, color.Gray{Y: 77})

		dst := Normalize(src)
		assert.Equal(t, color.NRGBA{R: 77, G: 77, B: 77, A: 0xff}, dst.NRGBAAt(0, 0))
	})

	t.Run("sub image offset", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		src.SetNRGBA(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

		dst := Normalize(src.SubImage(image.Rect(2, 2, 4, 4)))
		assert.Equal(t, image.Rect(0, 0, 2, 2), dst.Bounds())
		assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}, dst.NRGBAAt(0, 0))
	})
}
