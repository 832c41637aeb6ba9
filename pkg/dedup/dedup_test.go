package dedup

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rashset/pkg/errors"
)

// halves returns an image whose left half is dark and right half light
func halves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(20)
			if x >= w/2 {
				v = 230
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// stripes returns an image with dark top and light bottom
func stripes(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(20)
			if y >= h/2 {
				v = 230
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestFingerprintFormat(t *testing.T) {
	fp, err := Fingerprint(halves(64, 64))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), fp)
}

func TestFingerprintIdenticalImages(t *testing.T) {
	a, err := Fingerprint(halves(64, 64))
	require.NoError(t, err)
	b, err := Fingerprint(halves(64, 64))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	scaled, err := Fingerprint(halves(128, 128))
	require.NoError(t, err)
	assert.Equal(t, a, scaled, "resizing keeps the average hash")

	other, err := Fingerprint(stripes(64, 64))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestFingerprintInvalidInput(t *testing.T) {
	_, err := Fingerprint(nil)
	assert.True(t, errs.IsHash(err))

	_, err = Fingerprint(image.NewNRGBA(image.Rect(0, 0, 0, 10)))
	assert.True(t, errs.IsHash(err))
}

func TestSetAdd(t *testing.T) {
	s := NewSet()

	assert.True(t, s.Add("00000000ffffffff"))
	assert.False(t, s.Add("00000000ffffffff"), "second insert is a duplicate")
	assert.True(t, s.Add("ffffffff00000000"))
	assert.Equal(t, 2, s.Len())
}

func TestSeedFromDir(t *testing.T) {
	dir := t.TempDir()

	writeJPEG := func(name string, img image.Image) {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
		require.NoError(t, f.Close())
	}
	writeJPEG("BMR_WEB_1.jpg", halves(64, 64))
	writeJPEG("BMR_WEB_2.JPG", stripes(64, 64))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BMR_WEB_3.jpg"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	s := NewSet()
	added, skipped, err := s.SeedFromDir(dir, DecodeFile)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, skipped)

	fp, err := Fingerprint(halves(64, 64))
	require.NoError(t, err)
	assert.False(t, s.Add(fp), "seeded fingerprint rejects the same image")
}

func TestSeedFromMissingDir(t *testing.T) {
	s := NewSet()
	added, skipped, err := s.SeedFromDir(filepath.Join(t.TempDir(), "nope"), DecodeFile)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Zero(t, skipped)
}
