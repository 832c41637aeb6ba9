// Package collector drives a dataset collection run.
//
// For every class label in order it sends each configured query to every
// search source, then pushes each returned URL through the pipeline:
// fetch and decode, fingerprint, reject duplicates, save. Failures of a
// single candidate are logged and counted; a failed search is logged and the
// run moves on to the next source or query.
//
// A Session carries the run-scoped state: the fingerprint set and the
// filename counters. Two runs with fresh sessions do not share fingerprints,
// so images already on disk are saved again unless the session is seeded from
// the class folders first.
package collector
