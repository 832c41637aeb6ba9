package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rashset/pkg/collector"
	errs "rashset/pkg/errors"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestPrintRunStart(t *testing.T) {
	buf := captureOutput(t)

	PrintRunStart("images", "images/dataset_metadata.csv", []string{"Bing", "Reddit"})

	out := buf.String()
	assert.Contains(t, out, "images/dataset_metadata.csv")
	assert.Contains(t, out, "Bing, Reddit")
}

func TestPrintRunStartWithoutSources(t *testing.T) {
	buf := captureOutput(t)

	PrintRunStart("images", "images/dataset_metadata.csv", nil)
	assert.Contains(t, buf.String(), "No sources configured")
}

func TestPrintRunSummary(t *testing.T) {
	buf := captureOutput(t)

	PrintRunSummary(collector.Stats{
		Saved:           5,
		Duplicates:      2,
		AdapterFailures: 1,
		Failures:        map[errs.Kind]int{errs.KindFetch: 3, errs.KindDecode: 1},
		SavedByLabel:    map[string]int{"RASH": 2, "BMR": 3},
		Duration:        1500 * time.Millisecond,
	}, "images")

	out := buf.String()
	assert.Contains(t, out, "[RUN COMPLETE]")
	assert.Contains(t, out, Yellow("4"), "failure kinds are summed")
	assert.Contains(t, out, "Search failures: 1")
	assert.Contains(t, out, "1.5s")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("BMR:")), bytes.Index(buf.Bytes(), []byte("RASH:")))
}
