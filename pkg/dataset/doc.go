// Package dataset manages the on-disk layout of collected images.
//
// Each class label owns a folder under the dataset root holding files named
// <PREFIX><N>.jpg. The Allocator hands out N per label: it scans the folder
// once for the highest existing suffix and counts up from there. The Writer
// encodes images as JPEG, moves them into place with an atomic rename, and
// appends the matching metadata row before the counter advances.
//
// Usage:
//
//	alloc := dataset.NewAllocator("images")
//	w := dataset.NewWriter("images", 90, metaLog)
//
//	path, err := w.Save(alloc, dataset.BMR, img, metadata.Record{
//	    Source: "bing",
//	    Query:  "malar rash",
//	    URL:    url,
//	})
package dataset
