package collector

import (
	"time"

	errs "rashset/pkg/errors"
)

// Stats summarizes a run
type Stats struct {
	Candidates      int
	Saved           int
	Duplicates      int
	AdapterFailures int
	Failures        map[errs.Kind]int
	SavedByLabel    map[string]int
	Duration        time.Duration
}

func newStats() Stats {
	return Stats{
		Failures:     make(map[errs.Kind]int),
		SavedByLabel: make(map[string]int),
	}
}

// FailureCount returns the number of skipped candidates across all kinds
func (s Stats) FailureCount() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}
	return n
}

// Observer receives collection events, typically to export metrics
type Observer interface {
	Candidate(source, label string)
	Saved(source, label string)
	Duplicate(source, label string)
	Failed(source, kind string)
	SearchFailed(source string)
	SearchFinished(source string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) Candidate(string, string)             {}
func (nopObserver) Saved(string, string)                 {}
func (nopObserver) Duplicate(string, string)             {}
func (nopObserver) Failed(string, string)                {}
func (nopObserver) SearchFailed(string)                  {}
func (nopObserver) SearchFinished(string, time.Duration) {}
