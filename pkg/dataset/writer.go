package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	errs "rashset/pkg/errors"
	"rashset/pkg/metadata"
)

const DefaultJPEGQuality = 90

// MetadataAppender receives one record per saved image
type MetadataAppender interface {
	Append(rec metadata.Record) error
}

// Writer stores images in class folders and records them in the metadata log
type Writer struct {
	root    string
	quality int
	meta    MetadataAppender
}

// NewWriter creates a writer rooted at root. A quality outside 1-100 falls
// back to DefaultJPEGQuality.
func NewWriter(root string, quality int, meta MetadataAppender) *Writer {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Writer{root: root, quality: quality, meta: meta}
}

// Save writes img as the next file of class and appends rec with the filename
// and label filled in. The counter advances only after both the image and its
// metadata row are written; on a metadata failure the image is removed.
func (w *Writer) Save(alloc *Allocator, c Class, img image.Image, rec metadata.Record) (string, error) {
	dir := c.Dir(w.root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.WriteError("create class directory", dir, err)
	}

	n, err := alloc.Peek(c)
	if err != nil {
		return "", errs.WriteError("allocate name", dir, err)
	}

	name := c.FileName(n)
	path := filepath.Join(dir, name)

	if err := w.writeJPEG(path, img); err != nil {
		return "", err
	}

	rec.Filename = name
	rec.Label = c.Label
	if err := w.meta.Append(rec); err != nil {
		os.Remove(path)
		return "", errs.WriteError("append metadata", path, err)
	}

	alloc.Commit(c)
	return path, nil
}

// writeJPEG encodes into a temporary file and renames it into place
func (w *Writer) writeJPEG(path string, img image.Image) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return errs.WriteError("create temporary file", tempFile, err)
	}

	err = jpeg.Encode(out, img, &jpeg.Options{Quality: w.quality})
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return errs.WriteError("encode jpeg", path, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return errs.WriteError("close file", path, closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return errs.WriteError("rename", path, fmt.Errorf("failed to rename temporary file: %w", err))
	}

	return nil
}
