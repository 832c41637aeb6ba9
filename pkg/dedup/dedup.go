// Package dedup fingerprints images with an average hash and tracks which
// fingerprints a run has already accepted.
package dedup

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/corona10/goimagehash"

	errs "rashset/pkg/errors"
)

// Fingerprint returns the 64-bit average hash of img as 16 lowercase hex digits
func Fingerprint(img image.Image) (string, error) {
	if img == nil {
		return "", errs.HashError(errors.New("nil image"))
	}
	if img.Bounds().Empty() {
		return "", errs.HashError(errors.New("zero-area image"))
	}

	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return "", errs.HashError(err)
	}

	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// Set holds the fingerprints accepted during one run. The zero value is not
// usable; call NewSet.
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty fingerprint set
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add records fp and reports true when it was not present. A false return
// means the candidate is a duplicate.
func (s *Set) Add(fp string) bool {
	if _, ok := s.seen[fp]; ok {
		return false
	}
	s.seen[fp] = struct{}{}
	return true
}

// Len returns the number of distinct fingerprints recorded
func (s *Set) Len() int {
	return len(s.seen)
}

// Decoder opens an image file for seeding
type Decoder func(path string) (image.Image, error)

// SeedFromDir fingerprints every .jpg file directly inside dir and records it.
// A missing directory seeds nothing. Files that fail to decode are skipped and
// counted in the returned skipped value.
func (s *Set) SeedFromDir(dir string, decode Decoder) (added, skipped int, err error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".jpg") {
			continue
		}

		img, err := decode(filepath.Join(dir, entry.Name()))
		if err != nil {
			skipped++
			continue
		}
		fp, err := Fingerprint(img)
		if err != nil {
			skipped++
			continue
		}
		if s.Add(fp) {
			added++
		}
	}

	return added, skipped, nil
}

// DecodeFile decodes the image stored at path
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
