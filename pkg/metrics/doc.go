/*
Package metrics exposes Prometheus instrumentation for a running project:
protocol and step counts by status, the background scheduler's update-cycle
duration, lifecycle operation latencies, and executor-level step timing.

# Metrics Catalog

Project metrics:

	meridian_protocols_total{status}:
	  Type: Gauge
	  Description: Number of protocols currently in each Status.
	  Example: meridian_protocols_total{status="RUNNING"} 4

	meridian_steps_total{status}:
	  Type: Gauge
	  Description: Number of steps across all protocols currently in each Status.
	  Example: meridian_steps_total{status="WAITING"} 12

	meridian_active_protocols:
	  Type: Gauge
	  Description: Number of protocols whose status is in the Active set
	  (LAUNCHED, RUNNING, SCHEDULED, INTERACTIVE, WAITING).
	  Example: meridian_active_protocols 3

API metrics:

	meridian_api_requests_total{method, status}:
	  Type: Counter
	  Description: Total API requests by method and response status.
	  Example: meridian_api_requests_total{method="LaunchProtocol",status="200"} 40

	meridian_api_request_duration_seconds{method}:
	  Type: Histogram
	  Description: API request duration in seconds.

Scheduler metrics:

	meridian_scheduler_cycle_duration_seconds:
	  Type: Histogram
	  Description: Time taken to refresh every active protocol in one
	  background update-cycle tick.

	meridian_protocols_launched_total:
	  Type: Counter
	  Description: Total number of protocols launched.

	meridian_protocols_finished_total:
	  Type: Counter
	  Description: Total number of protocols that reached FINISHED.

	meridian_protocols_failed_total:
	  Type: Counter
	  Description: Total number of protocols that reached FAILED.

Protocol lifecycle operation metrics:

	meridian_protocol_launch_duration_seconds:
	  Type: Histogram
	  Description: Time taken to launch a protocol (store copy plus executor startup).

	meridian_protocol_update_duration_seconds:
	  Type: Histogram
	  Description: Time taken by a single protocol update-cycle retry loop.

	meridian_protocol_delete_duration_seconds:
	  Type: Histogram
	  Description: Time taken to delete a protocol and its owned relations.

Step execution metrics:

	meridian_step_duration_seconds{executor}:
	  Type: Histogram
	  Description: Step execution duration in seconds, labeled by executor
	  kind (serial, threadpool, queue, mpi).

	meridian_steps_failed_total{executor}:
	  Type: Counter
	  Description: Total number of steps that ended FAILED, by executor kind.

Queue executor metrics:

	meridian_queue_polls_total:
	  Type: Counter
	  Description: Total number of job-status polls issued to a queue system.

	meridian_queue_submit_duration_seconds:
	  Type: Histogram
	  Description: Time taken to submit a job script to a queue system.

MPI executor metrics:

	meridian_mpi_ranks_active:
	  Type: Gauge
	  Description: Number of MPI rank goroutines currently running a step.

# Usage

Register the collector against a project's store and expose the handler:

	import "github.com/meridian-sci/meridian/pkg/metrics"

	collector := metrics.NewCollector(projectStore)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())

Timing a lifecycle operation:

	timer := metrics.NewTimer()
	err := scheduler.LaunchProtocol(p, false)
	timer.ObserveDuration(metrics.LaunchDuration)

Timing a labeled operation:

	timer := metrics.NewTimer()
	err := runSteps(steps)
	timer.ObserveDurationVec(metrics.StepDuration, "threadpool")

# Suggested Dashboards

Protocol overview:
  - Active protocols: meridian_active_protocols
  - Running protocols: meridian_protocols_total{status="RUNNING"}
  - Failed protocols: meridian_protocols_total{status="FAILED"}
  - Protocol failure rate: rate(meridian_protocols_failed_total[5m])

API:
  - Request rate: rate(meridian_api_requests_total[1m])
  - Error rate: rate(meridian_api_requests_total{status=~"5.."}[1m])
  - p95 latency: histogram_quantile(0.95, meridian_api_request_duration_seconds_bucket)
  - p99 latency: histogram_quantile(0.99, meridian_api_request_duration_seconds_bucket)

Scheduler health:
  - Launch rate: rate(meridian_protocols_launched_total[1m])
  - p95 update-cycle duration: histogram_quantile(0.95, meridian_scheduler_cycle_duration_seconds_bucket)
  - Step failure rate: rate(meridian_steps_failed_total[5m])

# Alerting Examples

High step failure rate:
  - Alert: rate(meridian_steps_failed_total[5m]) > 0.1

Scheduler cycle stalling:
  - Alert: histogram_quantile(0.95, meridian_scheduler_cycle_duration_seconds_bucket) > 30

API latency regression:
  - Alert: histogram_quantile(0.95, meridian_api_request_duration_seconds_bucket) > 1
*/
package metrics
