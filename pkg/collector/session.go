package collector

import (
	"rashset/pkg/dataset"
	"rashset/pkg/dedup"
	"rashset/pkg/logger"
)

// Session holds the state shared by all saves of one run
type Session struct {
	Fingerprints *dedup.Set
	Counters     *dataset.Allocator
}

// NewSession starts an empty session for the dataset under root
func NewSession(root string) *Session {
	return &Session{
		Fingerprints: dedup.NewSet(),
		Counters:     dataset.NewAllocator(root),
	}
}

// SeedFromDisk records the fingerprints of the images already stored in each
// class folder under root. It returns how many distinct fingerprints the
// session knows afterwards.
func (s *Session) SeedFromDisk(root string, log logger.Logger) (int, error) {
	for _, c := range dataset.Classes {
		added, skipped, err := s.Fingerprints.SeedFromDir(c.Dir(root), dedup.DecodeFile)
		if err != nil {
			return s.Fingerprints.Len(), err
		}

		log.InfoWithFields("Seeded fingerprints from disk", map[string]interface{}{
			"label":   c.Label,
			"dir":     c.Dir(root),
			"added":   added,
			"skipped": skipped,
		})
	}
	return s.Fingerprints.Len(), nil
}
