// Package metrics exposes run outcomes as Prometheus series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

const (
	namespace = "newsharvester"
	subsystem = "pipeline"
)

// Recorder turns finished runs into counters and a duration histogram.
type Recorder struct {
	runs            *prometheus.CounterVec
	articles        *prometheus.CounterVec
	duration        prometheus.Histogram
	lastRunFinished prometheus.Gauge
}

var _ ports.RunRecorder = (*Recorder)(nil)

// NewRecorder registers the pipeline metrics on reg (the default registerer when nil).
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Finished runs by outcome",
		}, []string{"outcome"}),
		articles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "articles_total",
			Help:      "Articles handled by result",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		lastRunFinished: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_run_finished_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}),
	}
}

// RecordRun implements ports.RunRecorder.
func (r *Recorder) RecordRun(run domain.RunLog) {
	r.runs.WithLabelValues(outcome(run)).Inc()
	r.duration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	r.lastRunFinished.Set(float64(run.FinishedAt.Unix()))

	if run.Summary == nil {
		return
	}
	s := run.Summary
	r.articles.WithLabelValues("candidate").Add(float64(s.TotalArticle))
	r.articles.WithLabelValues("forwarded").Add(float64(s.TotalSaved))
	r.articles.WithLabelValues("skipped").Add(float64(s.TotalSkipped))
	r.articles.WithLabelValues("failed").Add(float64(s.TotalError))
	if s.Save != nil {
		r.articles.WithLabelValues("persisted").Add(float64(s.Save.Saved))
		r.articles.WithLabelValues("duplicate").Add(float64(s.Save.Duplicates))
	}
}

func outcome(run domain.RunLog) string {
	switch {
	case run.Summary == nil:
		return "no_sources"
	case run.Summary.Save == nil:
		return "save_failed"
	case run.Summary.TotalError > 0:
		return "partial"
	default:
		return "success"
	}
}
