// SPDX-License-Identifier: MIT

// Package metrics exposes pipeline health as Prometheus metrics. All
// methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "spectrum/internal/log"
	"spectrum/internal/spectrum"
)

const namespace = "spectrum"

// Metrics holds the collectors for one pipeline.
type Metrics struct {
	registry *prometheus.Registry

	updates        prometheus.Counter
	resets         prometheus.Counter
	errors         *prometheus.CounterVec // by stage
	updateDuration prometheus.Histogram
	verticalScale  prometheus.Gauge
	peakMagnitude  prometheus.Gauge
	peakFrequency  prometheus.Gauge
	sampleRate     prometheus.Gauge
	blocksDropped  prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		updates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Number of blocks projected.",
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Number of projector resets.",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by pipeline stage.",
		}, []string{"stage"}),
		updateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent in one projector update, transform included.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 12), // 50µs .. ~100ms
		}),
		verticalScale: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vertical_scale",
			Help:      "Current vertical extent of the spectrum plot.",
		}),
		peakMagnitude: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_magnitude",
			Help:      "Largest displayed magnitude of the last block (uncapped).",
		}),
		peakFrequency: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_frequency_hertz",
			Help:      "Frequency of the largest displayed magnitude of the last block.",
		}),
		sampleRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sample_rate_hertz",
			Help:      "Sample rate used for the last block.",
		}),
		blocksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_dropped_total",
			Help:      "Blocks discarded because the projector was busy.",
		}),
	}
}

// ObserveUpdate records one completed projector update.
func (m *Metrics) ObserveUpdate(d time.Duration, scale float64, peak spectrum.Peak, sampleRate float64) {
	if m == nil {
		return
	}
	m.updates.Inc()
	m.updateDuration.Observe(d.Seconds())
	m.verticalScale.Set(scale)
	m.peakMagnitude.Set(peak.Magnitude)
	m.peakFrequency.Set(peak.Frequency)
	m.sampleRate.Set(sampleRate)
}

// ObserveReset records a projector reset.
func (m *Metrics) ObserveReset(scale float64) {
	if m == nil {
		return
	}
	m.resets.Inc()
	m.verticalScale.Set(scale)
	m.peakMagnitude.Set(0)
	m.peakFrequency.Set(0)
}

// ObserveError counts an error in the named stage ("update", "capture", ...).
func (m *Metrics) ObserveError(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage).Inc()
}

// ObserveDropped counts blocks that were discarded.
func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.blocksDropped.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	applog.Infof("Metrics: Serving on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
