// Package fetch downloads candidate images and decodes them into a uniform
// three-channel pixel format.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 20 << 20

	// DefaultMaxPixels caps declared width*height before a full decode
	DefaultMaxPixels = 90_000_000
)

// Options configures a Fetcher
type Options struct {
	Timeout   time.Duration
	MaxBytes  int64
	MaxPixels int64
	UserAgent string
}

// Fetcher retrieves and decodes images with a single attempt per URL
type Fetcher struct {
	httpClient *http.Client
	opts       Options
	logger     logger.Logger
}

// New creates a Fetcher. Zero option values fall back to defaults.
func New(opts Options, log logger.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     log,
	}
}

// Fetch downloads url and returns the decoded image with an opaque alpha channel
func (f *Fetcher) Fetch(ctx context.Context, url string) (*image.NRGBA, error) {
	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errs.DecodeError(url, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > f.opts.MaxPixels {
		return nil, errs.DecodeError(url, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, f.opts.MaxPixels))
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.DecodeError(url, err)
	}

	f.logger.DebugWithFields("image decoded", map[string]interface{}{
		"url":    url,
		"format": format,
		"bytes":  len(data),
	})

	return Normalize(src), nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.FetchError("build request", url, 0, err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errs.FetchError(http.MethodGet, url, 0, err)
	}
	defer resp.Body.Close()

	f.logger.DebugWithFields("image response", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.FetchError(http.MethodGet, url, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, errs.FetchError("read body", url, resp.StatusCode, err)
	}
	if int64(len(data)) > f.opts.MaxBytes {
		return nil, errs.FetchError("read body", url, resp.StatusCode,
			fmt.Errorf("body exceeds %d bytes", f.opts.MaxBytes))
	}

	return data, nil
}

// Normalize converts src to NRGBA with every alpha value set to 255. Color
// channels of non-premultiplied sources are kept as stored.
func Normalize(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			srcRow := n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], srcRow[:4*b.Dx()])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
