package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace defines the global prefix for all metrics (timegate_...).
const namespace = "timegate"

var (
	// HTTPReqDuration measures the latency of HTTP requests.
	// Metric: timegate_api_http_handling_seconds
	HTTPReqDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "http_handling_seconds",
		Help:      "Time taken to handle HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	// HTTPReqTotal counts the total number of HTTP requests.
	// Metric: timegate_api_http_requests_total
	HTTPReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "path", "code"})

	// ScheduleStepFailures counts failures per step of the rule creation
	// sequence. A non-zero "grant_invoke", "attach_target" or
	// "record_ownership" count means orphaned rules exist for operators to
	// reconcile: creation has no automatic rollback.
	// Metric: timegate_scheduler_step_failures_total
	ScheduleStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "step_failures_total",
		Help:      "Failures per named step of the rule creation sequence",
	}, []string{"step"})

	// SchedulesTotal counts successfully registered rules.
	// Metric: timegate_scheduler_schedules_total
	SchedulesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "schedules_total",
		Help:      "Rules registered end to end",
	})

	// SweepRulesRemoved counts rules fully torn down by sweep passes.
	// Metric: timegate_sweeper_rules_removed_total
	SweepRulesRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "rules_removed_total",
		Help:      "Rules torn down by sweep passes",
	}, []string{"pass"})

	// SweepRuleFailures counts per-rule teardown failures during sweeps.
	// Failures never abort a sweep batch.
	// Metric: timegate_sweeper_rule_failures_total
	SweepRuleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "rule_failures_total",
		Help:      "Per-rule teardown failures during sweep passes",
	}, []string{"pass"})

	// DispatchTotal counts dispatch target invocations by outcome.
	// Metric: timegate_dispatch_invocations_total
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "invocations_total",
		Help:      "Dispatch target invocations",
	}, []string{"outcome"})
)
