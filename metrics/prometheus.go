// Package metrics provides a Prometheus-based implementation of the
// engine's monitoring hooks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Options configure a PrometheusRecorder.
type Options struct {
	// Registerer receives the collectors. Defaults to the global default
	// registerer; tests supply their own registry.
	Registerer prometheus.Registerer
}

// PrometheusRecorder implements engine.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	submissionsTotal   prometheus.Counter
	instancesActive    prometheus.Gauge
	instancesFinished  *prometheus.CounterVec
	eventsRouted       *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	workerPanicsTotal  prometheus.Counter
}

// NewPrometheusRecorder creates a new Prometheus-based recorder.
func NewPrometheusRecorder(optFns ...func(o *Options)) *PrometheusRecorder {
	opts := Options{Registerer: prometheus.DefaultRegisterer}
	for _, fn := range optFns {
		fn(&opts)
	}
	factory := promauto.With(opts.Registerer)

	return &PrometheusRecorder{
		submissionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "workflow_submissions_total",
			Help: "Total number of tasks accepted onto the ingestion queue",
		}),
		instancesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "workflow_instances_active",
			Help: "Number of workflow runs currently executing",
		}),
		instancesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_instances_finished_total",
			Help: "Total number of workflow runs reaching a terminal status",
		}, []string{"status"}),
		eventsRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_events_routed_total",
			Help: "Total number of internal event deliveries by event id",
		}, []string{"event"}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_notifications_total",
			Help: "Total number of external notifications handed to the proxy by topic",
		}, []string{"topic"}),
		workerPanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "workflow_worker_panics_total",
			Help: "Total number of panics absorbed by the worker error boundary",
		}),
	}
}

// SubmissionQueued implements engine.Recorder.
func (p *PrometheusRecorder) SubmissionQueued() { p.submissionsTotal.Inc() }

// InstanceStarted implements engine.Recorder.
func (p *PrometheusRecorder) InstanceStarted() { p.instancesActive.Inc() }

// InstanceFinished implements engine.Recorder.
func (p *PrometheusRecorder) InstanceFinished(status string) {
	p.instancesActive.Dec()
	p.instancesFinished.WithLabelValues(status).Inc()
}

// EventRouted implements engine.Recorder.
func (p *PrometheusRecorder) EventRouted(eventID string) {
	p.eventsRouted.WithLabelValues(eventID).Inc()
}

// NotificationForwarded implements engine.Recorder.
func (p *PrometheusRecorder) NotificationForwarded(topic string) {
	p.notificationsTotal.WithLabelValues(topic).Inc()
}

// WorkerPanicked implements engine.Recorder.
func (p *PrometheusRecorder) WorkerPanicked() { p.workerPanicsTotal.Inc() }
