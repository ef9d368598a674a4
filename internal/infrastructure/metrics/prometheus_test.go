package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsHarvester/internal/domain"
)

func TestRecordRun(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rec.RecordRun(domain.RunLog{
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Summary: &domain.RunSummary{
			TotalArticle: 5,
			TotalSaved:   3,
			TotalSkipped: 2,
			TotalError:   1,
			Save:         &domain.SaveResult{Status: domain.SavePartialSuccess, Saved: 2, Failed: 1, Duplicates: 1},
		},
	})
	rec.RecordRun(domain.RunLog{StartedAt: start, FinishedAt: start.Add(time.Second)})

	assert.InDelta(t, 1, gathered(t, reg, "newsharvester_pipeline_runs_total", "partial"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "newsharvester_pipeline_runs_total", "no_sources"), 0)
	assert.InDelta(t, 3, gathered(t, reg, "newsharvester_pipeline_articles_total", "forwarded"), 0)
	assert.InDelta(t, 2, gathered(t, reg, "newsharvester_pipeline_articles_total", "persisted"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "newsharvester_pipeline_articles_total", "duplicate"), 0)
	assert.InDelta(t, float64(start.Add(time.Second).Unix()),
		gathered(t, reg, "newsharvester_pipeline_last_run_finished_timestamp_seconds", ""), 0)
}

// gathered returns the value of the series whose single label equals label
// (or the unlabelled series when label is empty).
func gathered(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) != 1 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no_sources", outcome(domain.RunLog{}))
	assert.Equal(t, "save_failed", outcome(domain.RunLog{Summary: &domain.RunSummary{}}))
	assert.Equal(t, "success", outcome(domain.RunLog{Summary: &domain.RunSummary{Save: &domain.SaveResult{}}}))
}
