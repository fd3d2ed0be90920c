package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Project metrics
	ProtocolsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_protocols_total",
			Help: "Total number of protocols by status",
		},
		[]string{"status"},
	)

	StepsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_steps_total",
			Help: "Total number of steps by status",
		},
		[]string{"status"},
	)

	ActiveProtocols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_active_protocols",
			Help: "Number of protocols currently in an Active status",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Scheduler metrics
	SchedulerCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_scheduler_cycle_duration_seconds",
			Help:    "Time taken to refresh all active protocols in one background update cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProtocolsLaunched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_protocols_launched_total",
			Help: "Total number of protocols launched",
		},
	)

	ProtocolsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_protocols_failed_total",
			Help: "Total number of protocols that reached FAILED",
		},
	)

	ProtocolsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_protocols_finished_total",
			Help: "Total number of protocols that reached FINISHED",
		},
	)

	// Protocol lifecycle operation metrics
	LaunchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_protocol_launch_duration_seconds",
			Help:    "Time taken to launch a protocol (store copy plus executor startup)",
			Buckets: prometheus.DefBuckets,
		},
	)

	UpdateCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_protocol_update_duration_seconds",
			Help:    "Time taken by a single protocol update-cycle retry loop",
			Buckets: prometheus.DefBuckets,
		},
	)

	DeleteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_protocol_delete_duration_seconds",
			Help:    "Time taken to delete a protocol and its owned relations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Step execution metrics
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_step_duration_seconds",
			Help:    "Step execution duration in seconds by executor kind",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"executor"},
	)

	StepsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_steps_failed_total",
			Help: "Total number of steps that ended FAILED, by executor kind",
		},
		[]string{"executor"},
	)

	// Queue executor metrics
	QueuePollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_queue_polls_total",
			Help: "Total number of job-status polls issued to a queue system",
		},
	)

	QueueSubmitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_queue_submit_duration_seconds",
			Help:    "Time taken to submit a job script to a queue system",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MPI executor metrics
	MPIRanksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_mpi_ranks_active",
			Help: "Number of MPI rank goroutines currently running a step",
		},
	)
)

func init() {
	prometheus.MustRegister(ProtocolsTotal)
	prometheus.MustRegister(StepsTotal)
	prometheus.MustRegister(ActiveProtocols)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(SchedulerCycleDuration)
	prometheus.MustRegister(ProtocolsLaunched)
	prometheus.MustRegister(ProtocolsFailed)
	prometheus.MustRegister(ProtocolsFinished)

	prometheus.MustRegister(LaunchDuration)
	prometheus.MustRegister(UpdateCycleDuration)
	prometheus.MustRegister(DeleteDuration)

	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(StepsFailed)

	prometheus.MustRegister(QueuePollsTotal)
	prometheus.MustRegister(QueueSubmitDuration)

	prometheus.MustRegister(MPIRanksActive)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
