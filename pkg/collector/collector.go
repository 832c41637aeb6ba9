package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"rashset/pkg/config"
	"rashset/pkg/dataset"
	errs "rashset/pkg/errors"
	"rashset/pkg/fetch"
	"rashset/pkg/logger"
	"rashset/pkg/metadata"
	"rashset/pkg/ratelimit"
	"rashset/pkg/sources/bing"
	"rashset/pkg/sources/reddit"
)

// Source searches one external API for image URLs
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]string, error)
}

// Job is the query list collected under one class
type Job struct {
	Class   dataset.Class
	Queries []string
}

// Collector runs every job against every source in order
type Collector struct {
	sources  []Source
	jobs     []Job
	pipeline *Pipeline
	observer Observer
	logger   logger.Logger
}

// Options assembles a Collector from already built parts
type Options struct {
	Sources  []Source
	Jobs     []Job
	Pipeline *Pipeline
	Observer Observer
	Logger   logger.Logger
}

// NewWithOptions creates a Collector from explicit parts
func NewWithOptions(opts Options) *Collector {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Collector{
		sources:  opts.Sources,
		jobs:     opts.Jobs,
		pipeline: opts.Pipeline,
		observer: opts.Observer,
		logger:   opts.Logger,
	}
}

// New wires a Collector from configuration. Sources that are disabled or lack
// credentials are left out with a warning. The metadata log is created under
// the output root if it does not exist yet.
func New(cfg *config.Config, observer Observer, log logger.Logger) (*Collector, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	metaPath := filepath.Join(cfg.Output.RootDirectory, cfg.Output.MetadataFile)
	metaLog, err := metadata.Open(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata log: %w", err)
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:   cfg.Download.Timeout,
		MaxBytes:  cfg.Download.MaxBytes,
		MaxPixels: cfg.Download.MaxPixels,
		UserAgent: cfg.Download.UserAgent,
	}, log)
	writer := dataset.NewWriter(cfg.Output.RootDirectory, cfg.Output.JPEGQuality, metaLog)

	return NewWithOptions(Options{
		Sources:  SourcesFromConfig(cfg, log),
		Jobs:     JobsFromConfig(cfg),
		Pipeline: NewPipeline(fetcher, writer, log),
		Observer: observer,
		Logger:   log,
	}), nil
}

// SourcesFromConfig builds the enabled sources in collection order
func SourcesFromConfig(cfg *config.Config, log logger.Logger) []Source {
	limiter := limiterFromConfig(cfg)

	var out []Source

	switch {
	case !cfg.Bing.Enabled:
		log.Info("Bing source disabled")
	case !cfg.HasBingCredentials():
		log.WithField("source", bing.Name).Warn("Skipping source: API key missing")
	default:
		out = append(out, bing.NewClient(bing.Options{
			APIKey:   cfg.Bing.APIKey,
			Endpoint: cfg.Bing.Endpoint,
			Market:   cfg.Bing.Market,
			Count:    cfg.Bing.Count,
			Timeout:  cfg.Download.Timeout,
		}, limiter, log))
	}

	switch {
	case !cfg.Reddit.Enabled:
		log.Info("Reddit source disabled")
	case !cfg.HasRedditCredentials():
		log.WithField("source", reddit.Name).Warn("Skipping source: credentials missing")
	default:
		out = append(out, reddit.NewClient(reddit.Options{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			Username:     cfg.Reddit.Username,
			Password:     cfg.Reddit.Password,
			UserAgent:    cfg.Reddit.UserAgent,
			Subreddit:    cfg.Reddit.Subreddit,
			Limit:        cfg.Reddit.Limit,
			Timeout:      cfg.Download.Timeout,
			TokenURL:     cfg.Reddit.TokenURL,
			APIBase:      cfg.Reddit.APIBase,
		}, limiter, log))
	}

	return out
}

// limiterFromConfig paces API requests; a zero rate disables pacing
func limiterFromConfig(cfg *config.Config) ratelimit.Limiter {
	if cfg.RateLimit.RequestsPerMinute == 0 {
		return ratelimit.Unlimited{}
	}
	return ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
}

// JobsFromConfig returns the BMR job followed by the RASH job
func JobsFromConfig(cfg *config.Config) []Job {
	return []Job{
		{Class: dataset.BMR, Queries: cfg.Queries.BMR},
		{Class: dataset.RASH, Queries: cfg.Queries.RASH},
	}
}

// Sources returns the names of the active sources
func (c *Collector) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Run collects every job. It stops early only when ctx is cancelled, in which
// case the stats gathered so far are returned with ctx's error.
func (c *Collector) Run(ctx context.Context, session *Session) (Stats, error) {
	stats := newStats()
	start := time.Now()

	c.logger.InfoWithFields("Starting collection run", map[string]interface{}{
		"sources": c.Sources(),
		"action":  "run_start",
	})

	for _, job := range c.jobs {
		for _, query := range job.Queries {
			for _, src := range c.sources {
				if err := ctx.Err(); err != nil {
					stats.Duration = time.Since(start)
					return stats, err
				}
				if err := c.collectQuery(ctx, session, src, job.Class, query, &stats); err != nil {
					stats.Duration = time.Since(start)
					return stats, err
				}
			}
		}
	}

	stats.Duration = time.Since(start)
	c.logger.InfoWithFields("Collection run finished", map[string]interface{}{
		"candidates": stats.Candidates,
		"saved":      stats.Saved,
		"duplicates": stats.Duplicates,
		"failures":   stats.FailureCount(),
		"duration":   stats.Duration,
		"action":     "run_complete",
	})
	return stats, nil
}

// collectQuery searches one source and processes its results. Only a
// cancelled context is returned as an error.
func (c *Collector) collectQuery(ctx context.Context, session *Session, src Source, class dataset.Class, query string, stats *Stats) error {
	name := src.Name()

	searchStart := time.Now()
	urls, err := src.Search(ctx, query)
	c.observer.SearchFinished(name, time.Since(searchStart))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.AdapterFailures++
		c.observer.SearchFailed(name)
		logger.LogAdapterFailure(c.logger, name, class.Label, query, err)
		return nil
	}

	c.logger.InfoWithFields("Search returned results", map[string]interface{}{
		"source":  name,
		"label":   class.Label,
		"query":   query,
		"results": len(urls),
	})

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Candidates++
		c.observer.Candidate(name, class.Label)

		outcome, _, err := c.pipeline.Process(ctx, session, Candidate{
			URL:    u,
			Class:  class,
			Source: name,
			Query:  query,
		})

		switch outcome {
		case OutcomeSaved:
			stats.Saved++
			stats.SavedByLabel[class.Label]++
			c.observer.Saved(name, class.Label)
		case OutcomeDuplicate:
			stats.Duplicates++
			c.observer.Duplicate(name, class.Label)
		case OutcomeFailed:
			kind := errs.KindOf(err)
			stats.Failures[kind]++
			c.observer.Failed(name, string(kind))
		case OutcomeCancelled:
			return err
		}
	}

	return nil
}
