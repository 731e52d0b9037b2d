package worker

import (
	"fmt"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics keeps run counters
type Metrics struct {
	runs      *prometheus.CounterVec
	episodes  *prometheus.CounterVec
	credits   prometheus.Counter
	fallbacks prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates and registers run metrics
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	res := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "podscript", Name: "runs_total",
			Help: "Transcript runs by result"}, []string{"result"}),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "podscript", Name: "episodes_total",
			Help: "Resolved episodes by status and error category"}, []string{"status", "category"}),
		credits: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "podscript", Name: "credits_total",
			Help: "Lookup provider credits consumed"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "podscript", Name: "asr_fallbacks_total",
			Help: "ASR fallback invocations"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "podscript", Name: "run_duration_seconds",
			Help: "Transcript run duration", Buckets: prometheus.ExponentialBuckets(1, 3, 8)}),
	}
	for _, c := range []prometheus.Collector{res.runs, res.episodes, res.credits, res.fallbacks, res.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("can't register metric: %w", err)
		}
	}
	return res, nil
}

func (m *Metrics) observe(s *persistence.RunSummary, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.runs.WithLabelValues("failed").Inc()
	case s.LockSkipped:
		m.runs.WithLabelValues("skipped").Inc()
		return
	default:
		m.runs.WithLabelValues("ok").Inc()
	}
	m.episodes.WithLabelValues("done", "").Add(float64(s.Succeeded))
	for k, v := range s.FailedByCategory {
		m.episodes.WithLabelValues("error", k).Add(float64(v))
	}
	m.credits.Add(float64(s.Credits))
	m.fallbacks.Add(float64(s.FallbackInvoked))
	m.duration.Observe(s.Elapsed.Seconds())
}
