package dispatcher

import (
	"github.com/airenas/bpoc/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type serviceMetric struct {
	createDur prometheus.ObserverVec
	decideDur prometheus.ObserverVec
	eventDur  prometheus.ObserverVec

	decisionSize *prometheus.HistogramVec
	assignments  *prometheus.CounterVec
	events       *prometheus.CounterVec
	violations   prometheus.Counter
	activeRuns   prometheus.Gauge
}

func newRequestDuration(namespace, name string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name + "_request_durations_seconds",
			Help:      "Request latency distributions.",
		}, nil)
}

func initMetrics(data *ServiceData) error {
	namespace := "bpoc_dispatcher"
	createDur := newRequestDuration(namespace, "create")
	decideDur := newRequestDuration(namespace, "decide")
	eventDur := newRequestDuration(namespace, "event")
	data.metrics.createDur, data.metrics.decideDur, data.metrics.eventDur = createDur, decideDur, eventDur

	data.metrics.decisionSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_assignments",
			Help:      "Assignments per decision round",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"strategy"})
	data.metrics.assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Assignments counter",
		}, []string{"task"})
	data.metrics.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lifecycle events counter",
		}, []string{"lifecycle"})
	data.metrics.violations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Planner invariant violations",
		})
	data.metrics.activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of open runs",
		})
	return metrics.RegisterAll(createDur, decideDur, eventDur, data.metrics.decisionSize,
		data.metrics.assignments, data.metrics.events, data.metrics.violations, data.metrics.activeRuns)
}
