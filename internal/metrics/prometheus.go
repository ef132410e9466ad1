package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/scanplan/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use so that building
// a collector never panics on duplicate registration until it records.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	sampledRows           prometheus.Histogram
	clusterStatusFailures prometheus.Counter
	sizeLookups           *prometheus.CounterVec

	assignments        *prometheus.CounterVec
	assignmentDuration *prometheus.HistogramVec
	slotsGauge         prometheus.Gauge
	partitionPlacement *prometheus.CounterVec
	rebalanceMoves     prometheus.Histogram

	publishes      *prometheus.CounterVec
	publishVersion prometheus.Gauge
}

var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "scanplan" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "scanplan"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.sampledRows = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "estimator",
			Name:      "sampled_rows",
			Help:      "Rows read per sampling pass.",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000},
		})
		p.clusterStatusFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "estimator",
			Name:      "cluster_status_failures_total",
			Help:      "Cluster status queries that failed and fell back to heuristics.",
		})
		p.sizeLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "estimator",
			Name:      "size_lookups_total",
			Help:      "Partition size lookups by result (hit, miss, fallback).",
		}, []string{"result"})

		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "assignments_total",
			Help:      "Completed slot assignments by strategy.",
		}, []string{"strategy"})
		p.assignmentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "assignment_duration_seconds",
			Help:      "Time spent computing slot assignments.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us .. ~2.6s
		}, []string{"strategy"})
		p.slotsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "last_assignment_slots",
			Help:      "Slot count of the most recent assignment.",
		})
		p.partitionPlacement = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "partition_placements_total",
			Help:      "Partitions placed by locality (local) or by the fill pass (remote).",
		}, []string{"placement"})
		p.rebalanceMoves = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "rebalance_moves",
			Help:      "Partitions moved by the rebalance pass per assignment.",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100},
		})

		p.publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "publishes_total",
			Help:      "Assignment publications by result (success, failure).",
		}, []string{"result"})
		p.publishVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "version",
			Help:      "Last successfully published assignment version.",
		})

		p.reg.MustRegister(p.sampledRows)
		p.reg.MustRegister(p.clusterStatusFailures)
		p.reg.MustRegister(p.sizeLookups)
		p.reg.MustRegister(p.assignments)
		p.reg.MustRegister(p.assignmentDuration)
		p.reg.MustRegister(p.slotsGauge)
		p.reg.MustRegister(p.partitionPlacement)
		p.reg.MustRegister(p.rebalanceMoves)
		p.reg.MustRegister(p.publishes)
		p.reg.MustRegister(p.publishVersion)
	})
}

// EstimatorMetrics implementation

// RecordSampledRows observes the sampled row count.
func (p *PrometheusCollector) RecordSampledRows(rows int) {
	p.ensureRegistered()
	p.sampledRows.Observe(float64(rows))
}

// RecordClusterStatusFailure increments the failure counter.
func (p *PrometheusCollector) RecordClusterStatusFailure() {
	p.ensureRegistered()
	p.clusterStatusFailures.Inc()
}

// RecordSizeLookup increments the lookup counter for result.
func (p *PrometheusCollector) RecordSizeLookup(result string) {
	p.ensureRegistered()
	p.sizeLookups.WithLabelValues(result).Inc()
}

// PlannerMetrics implementation

// RecordAssignment records a completed assignment.
func (p *PrometheusCollector) RecordAssignment(strategy string, slots, _ /* partitions */ int, duration float64) {
	p.ensureRegistered()
	p.assignments.WithLabelValues(strategy).Inc()
	p.assignmentDuration.WithLabelValues(strategy).Observe(duration)
	p.slotsGauge.Set(float64(slots))
}

// RecordLocalAssignments adds to the local and remote placement counters.
func (p *PrometheusCollector) RecordLocalAssignments(local, remote int) {
	p.ensureRegistered()
	p.partitionPlacement.WithLabelValues("local").Add(float64(local))
	p.partitionPlacement.WithLabelValues("remote").Add(float64(remote))
}

// RecordRebalanceMoves observes the move count.
func (p *PrometheusCollector) RecordRebalanceMoves(moves int) {
	p.ensureRegistered()
	p.rebalanceMoves.Observe(float64(moves))
}

// PublisherMetrics implementation

// RecordPublish records a publication outcome.
func (p *PrometheusCollector) RecordPublish(success bool, version int64) {
	p.ensureRegistered()
	p.publishes.WithLabelValues(strconv.FormatBool(success)).Inc()
	if success {
		p.publishVersion.Set(float64(version))
	}
}
