// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/scanplan/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default when no collector is configured.
type NopMetrics struct{}

var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// EstimatorMetrics implementation

// RecordSampledRows discards the sampled row count.
func (n *NopMetrics) RecordSampledRows(_ /* rows */ int) {}

// RecordClusterStatusFailure discards the failure.
func (n *NopMetrics) RecordClusterStatusFailure() {}

// RecordSizeLookup discards the lookup outcome.
func (n *NopMetrics) RecordSizeLookup(_ /* result */ string) {}

// PlannerMetrics implementation

// RecordAssignment discards the assignment metric.
func (n *NopMetrics) RecordAssignment(_ /* strategy */ string, _ /* slots */, _ /* partitions */ int, _ /* duration */ float64) {
}

// RecordLocalAssignments discards the locality split.
func (n *NopMetrics) RecordLocalAssignments(_ /* local */, _ /* remote */ int) {}

// RecordRebalanceMoves discards the move count.
func (n *NopMetrics) RecordRebalanceMoves(_ /* moves */ int) {}

// PublisherMetrics implementation

// RecordPublish discards the publish outcome.
func (n *NopMetrics) RecordPublish(_ /* success */ bool, _ /* version */ int64) {}
