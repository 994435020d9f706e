package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/forge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes engine lifecycle events as Prometheus series.
type Metrics struct {
	registry     *prometheus.Registry
	parses       *prometheus.CounterVec
	stepsParsed  prometheus.Counter
	filesWritten *prometheus.CounterVec
	stepsSkipped prometheus.Counter
	mounts       *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_parses_total",
				Help: "Total number of generator responses parsed",
			},
			[]string{"fallback"},
		),
		stepsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forge_steps_parsed_total",
			Help: "Total number of steps extracted from generator responses",
		}),
		filesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_files_written_total",
				Help: "Total number of file nodes written into project trees",
			},
			[]string{"overwrite"},
		),
		stepsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forge_steps_skipped_total",
			Help: "Total number of CreateFile steps skipped on path collisions",
		}),
		mounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_mounts_total",
				Help: "Total number of mount descriptors handed to a sandbox",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.parses, m.stepsParsed, m.filesWritten, m.stepsSkipped, m.mounts)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepsParsed: func(ctx context.Context, e *domain.ParseEvent) {
			m.parses.WithLabelValues(strconv.FormatBool(e.Fallback)).Inc()
			m.stepsParsed.Add(float64(e.Steps))
		},
		OnFileWritten: func(ctx context.Context, e *domain.FileEvent) {
			m.filesWritten.WithLabelValues(strconv.FormatBool(e.Overwrite)).Inc()
		},
		OnStepSkipped: func(ctx context.Context, e *domain.SkipEvent) {
			m.stepsSkipped.Inc()
		},
		OnMounted: func(ctx context.Context, e *domain.MountEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.mounts.WithLabelValues(result).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
