package collector

import (
	"context"
	"image"

	"rashset/pkg/dataset"
	"rashset/pkg/dedup"
	"rashset/pkg/logger"
	"rashset/pkg/metadata"
)

// Candidate is one image URL returned by a source for a query
type Candidate struct {
	URL    string
	Class  dataset.Class
	Source string
	Query  string
}

func (c Candidate) logContext() logger.ItemContext {
	return logger.ItemContext{
		Source: c.Source,
		Label:  c.Class.Label,
		Query:  c.Query,
		URL:    c.URL,
	}
}

// Outcome is the result of processing one candidate
type Outcome int

const (
	OutcomeSaved Outcome = iota
	OutcomeDuplicate
	OutcomeFailed
	// OutcomeCancelled means ctx ended while the candidate was in flight
	OutcomeCancelled
)

// ImageFetcher downloads and decodes a candidate image
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*image.NRGBA, error)
}

// ImageWriter stores an accepted image with its metadata row
type ImageWriter interface {
	Save(alloc *dataset.Allocator, c dataset.Class, img image.Image, rec metadata.Record) (string, error)
}

// Pipeline runs a candidate through fetch, fingerprint, dedup, and save
type Pipeline struct {
	fetcher ImageFetcher
	writer  ImageWriter
	logger  logger.Logger
}

// NewPipeline creates a pipeline from its stages
func NewPipeline(fetcher ImageFetcher, writer ImageWriter, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{fetcher: fetcher, writer: writer, logger: log}
}

// Process handles one candidate. The fingerprint is recorded as soon as it
// passes the duplicate check, so a later save failure still blocks repeats.
// The returned error is non-nil for OutcomeFailed and OutcomeCancelled.
func (p *Pipeline) Process(ctx context.Context, session *Session, cand Candidate) (Outcome, string, error) {
	item := cand.logContext()

	img, err := p.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelled, "", ctx.Err()
		}
		logger.LogItemFailure(p.logger, item, err)
		return OutcomeFailed, "", err
	}

	fp, err := dedup.Fingerprint(img)
	if err != nil {
		logger.LogItemFailure(p.logger, item, err)
		return OutcomeFailed, "", err
	}

	if !session.Fingerprints.Add(fp) {
		logger.LogDuplicate(p.logger, item, fp)
		return OutcomeDuplicate, "", nil
	}

	path, err := p.writer.Save(session.Counters, cand.Class, img, metadata.Record{
		Source: cand.Source,
		Query:  cand.Query,
		URL:    cand.URL,
	})
	if err != nil {
		logger.LogItemFailure(p.logger, item, err)
		return OutcomeFailed, "", err
	}

	logger.LogSaved(p.logger, item, path)
	return OutcomeSaved, path, nil
}
