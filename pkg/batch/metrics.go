package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// Metrics counts what happened to each observation in a run. It has its
// own registry, so a batch run can be dumped to a textfile for the node
// exporter without any global state.
type Metrics struct {
	Registry *prometheus.Registry

	Observations *prometheus.CounterVec // by status: ok, failed, cancelled
	Failures     *prometheus.CounterVec // by kind, see FailureKind
	Clipped      prometheus.Counter

	mu      sync.Mutex
	latency *hdrhistogram.Histogram // microseconds
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Observations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streak_observations_total",
			Help: "Observations processed, by outcome",
		}, []string{"status"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "streak_failures_total",
			Help: "Failed observations, by cause",
		}, []string{"kind"}),
		Clipped: f.NewCounter(prometheus.CounterOpts{
			Name: "streak_regions_clipped_total",
			Help: "Extractions whose cutout ran off the edge of the image",
		}),
		latency: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

// FailureKind buckets an error by which stage of the extraction gave up.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, streak.ErrProjection):
		return "projection"
	case errors.Is(err, streak.ErrInvalidPSFWidth):
		return "psf"
	case errors.Is(err, streak.ErrRegionEmpty):
		return "region"
	case errors.Is(err, streak.ErrNoPixels):
		return "pixels"
	case errors.Is(err, streak.ErrInvalidConfig):
		return "config"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "other"
}

func (m *Metrics) Record(o Outcome) {
	switch {
	case o.Err == nil:
		m.Observations.WithLabelValues("ok").Inc()
		if o.Result != nil && o.Result.Clipped() {
			m.Clipped.Inc()
		}
	case FailureKind(o.Err) == "cancelled":
		m.Observations.WithLabelValues("cancelled").Inc()
		return
	default:
		m.Observations.WithLabelValues("failed").Inc()
		m.Failures.WithLabelValues(FailureKind(o.Err)).Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	us := o.Elapsed.Microseconds()
	if us < 1 {
		us = 1
	}
	m.latency.RecordValue(us) // out of range values are dropped
}

// LatencySummary describes how long observations took, cancelled ones aside.
func (m *Metrics) LatencySummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.latency
	if h.TotalCount() == 0 {
		return "latency[no observations]"
	}
	ms := func(us int64) float64 { return float64(us) / 1000.0 }
	return fmt.Sprintf("latency[n=%d, p50=%.1fms, p90=%.1fms, p99=%.1fms, max=%.1fms]",
		h.TotalCount(), ms(h.ValueAtQuantile(50)), ms(h.ValueAtQuantile(90)), ms(h.ValueAtQuantile(99)), ms(h.Max()))
}

// WriteTextfile dumps the counters in the Prometheus text format.
func (m *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.Registry); err != nil {
		return fmt.Errorf("metrics textfile '%s': %v", filename, err)
	}
	return nil
}
