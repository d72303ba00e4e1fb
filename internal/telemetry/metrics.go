package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

// MetricsOptions selects where collected metrics go at process end
type MetricsOptions struct {
	// Textfile is written in the Prometheus text format, for node_exporter's textfile collector.
	Textfile string
	// Pushgateway is the base URL of a Prometheus Pushgateway.
	Pushgateway string
	// Instance is used as the Pushgateway grouping key.
	Instance string
}

// MetricsSink counts observations and command durations
type MetricsSink struct {
	opts         MetricsOptions
	registry     *prometheus.Registry
	observations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetricsSink creates a sink with its own registry
func NewMetricsSink(opts MetricsOptions) *MetricsSink {
	m := &MetricsSink{
		opts:     opts,
		registry: prometheus.NewRegistry(),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capctl",
			Name:      "command_observations_total",
			Help:      "Telemetry observations by command and phase.",
		}, []string{"command", "phase"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capctl",
			Name:      "command_duration_seconds",
			Help:      "Duration of finished commands.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"command", "outcome"}),
	}
	m.registry.MustRegister(m.observations, m.duration)
	return m
}

// Registry exposes the sink's registry
func (m *MetricsSink) Registry() *prometheus.Registry {
	return m.registry
}

// Emit implements Sink
func (m *MetricsSink) Emit(_ context.Context, e Event) error {
	m.observations.WithLabelValues(e.Command, string(e.Phase)).Inc()
	if e.Phase.Terminal() {
		m.duration.WithLabelValues(e.Command, string(e.Phase)).Observe(e.Duration.Seconds())
	}
	return nil
}

// Flush writes the textfile and pushes to the gateway, whichever are configured
func (m *MetricsSink) Flush(ctx context.Context) error {
	var errs []error
	if m.opts.Textfile != "" {
		if err := m.WriteTextfile(m.opts.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if m.opts.Pushgateway != "" {
		pusher := push.New(m.opts.Pushgateway, "capctl").Gatherer(m.registry)
		if m.opts.Instance != "" {
			pusher = pusher.Grouping("instance", m.opts.Instance)
		}
		if err := pusher.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to push metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// WriteTextfile atomically replaces path with the current metrics
func (m *MetricsSink) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace metrics file: %w", err)
	}
	return nil
}
