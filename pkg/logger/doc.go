// Package logger provides the structured logging interface used by rashset.
//
// It wraps zerolog with a small field-oriented API:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("label", "BMR").Info("collecting")
//	log.WarnWithFields("item skipped", map[string]interface{}{
//	    "source": "bing",
//	    "url":    url,
//	    "query":  query,
//	})
//
// Console output is colorized and goes to stdout. When logging.file is set,
// JSON lines are appended to that file as well. Tests use NewTestLogger to
// capture messages without writing anywhere.
package logger
