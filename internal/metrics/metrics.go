// Package metrics exports Drive operation counters and latencies to
// prometheus, fed from cubby signals.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/cubby"
)

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
)

// Recorder owns a registry and the cubby collectors registered on it.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	releases   []func(context.Context)
	mu         sync.Mutex
}

// New creates a Recorder with its own registry, including the Go runtime
// and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cubby_operations_total",
				Help: "Drive operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cubby_operation_duration_seconds",
				Help:    "Drive operation latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	r.registry.MustRegister(
		r.operations,
		r.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Listen hooks every cubby signal.
func (r *Recorder) Listen() {
	for _, info := range cubby.Signals {
		l := capitan.Hook(info.Signal, r.observe)
		r.mu.Lock()
		r.releases = append(r.releases, func(ctx context.Context) {
			_ = l.Drain(ctx)
			l.Close()
		})
		r.mu.Unlock()
	}
}

// Close drains pending events and unhooks the recorder.
func (r *Recorder) Close(ctx context.Context) {
	r.mu.Lock()
	releases := r.releases
	r.releases = nil
	r.mu.Unlock()

	for _, release := range releases {
		release(ctx)
	}
}

func (r *Recorder) observe(_ context.Context, e *capitan.Event) {
	info, ok := cubby.LookupSignal(e.Signal())
	if !ok {
		return
	}

	outcome := OutcomeSuccess
	switch {
	case info.Operation == "duplicate":
		outcome = OutcomeDuplicate
	case info.Failure:
		outcome = OutcomeFailure
	}
	r.operations.WithLabelValues(info.Operation, outcome).Inc()

	if d := cubby.FieldDuration.ExtractFromFields(e.Fields()); d > 0 {
		r.durations.WithLabelValues(info.Operation).Observe(d.Seconds())
	}
}
