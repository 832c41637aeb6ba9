package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Candidate("Bing", "BMR")
	m.Candidate("Bing", "BMR")
	m.Saved("Bing", "BMR")
	m.Duplicate("Reddit", "RASH")
	m.Failed("Reddit", "fetch")
	m.SearchFailed("Reddit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("Bing", "BMR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SavedTotal.WithLabelValues("Bing", "BMR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesTotal.WithLabelValues("Reddit", "RASH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("Reddit", "fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFailureTotal.WithLabelValues("Reddit")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.Saved("Bing", "BMR")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SavedTotal.WithLabelValues("Bing", "BMR")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Saved("Bing", "RASH")
	m.SearchFinished("Bing", 250*time.Millisecond)
	m.RunFinished(3 * time.Second)

	path := filepath.Join(t.TempDir(), "rashset.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `rashset_saved_total{label="RASH",source="Bing"} 1`)
	assert.Contains(t, out, "rashset_run_duration_seconds 3")
	assert.Contains(t, out, `rashset_search_duration_seconds_count{source="Bing"} 1`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
