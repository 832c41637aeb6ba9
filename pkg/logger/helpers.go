package logger

import (
	"time"

	errs "rashset/pkg/errors"
)

// ItemContext identifies one image candidate in log lines
type ItemContext struct {
	Source string
	Label  string
	Query  string
	URL    string
}

func (c ItemContext) fields() map[string]interface{} {
	return map[string]interface{}{
		"source": c.Source,
		"label":  c.Label,
		"query":  c.Query,
		"url":    c.URL,
	}
}

// LogItemFailure logs a skipped candidate with its error kind
func LogItemFailure(l Logger, item ItemContext, err error) {
	l.WithFields(item.fields()).
		WithField("kind", string(errs.KindOf(err))).
		WithError(err).
		Warn("Candidate skipped")
}

// LogDuplicate logs a candidate rejected by the fingerprint set
func LogDuplicate(l Logger, item ItemContext, fingerprint string) {
	l.WithFields(item.fields()).
		WithField("fingerprint", fingerprint).
		Info("Duplicate skipped")
}

// LogSaved logs a stored image
func LogSaved(l Logger, item ItemContext, path string) {
	l.WithFields(item.fields()).
		WithField("path", path).
		Info("Image saved")
}

// LogAdapterFailure logs a search request that failed as a whole
func LogAdapterFailure(l Logger, source, label, query string, err error) {
	l.WithFields(map[string]interface{}{
		"source": source,
		"label":  label,
		"query":  query,
		"kind":   string(errs.KindOf(err)),
	}).WithError(err).Error("Source search failed")
}

// LogRateLimit logs a pacing wait before an API request
func LogRateLimit(l Logger, endpoint string, wait time.Duration) {
	l.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"wait":     wait,
		"action":   "paced",
	}).Debug("Waiting for request budget")
}
