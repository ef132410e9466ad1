package types

// MetricsCollector defines methods for recording planning metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Plans for different queries may record concurrently, so implementations
// must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	EstimatorMetrics
	PlannerMetrics
	PublisherMetrics
}

// EstimatorMetrics defines metrics for statistics estimation.
type EstimatorMetrics interface {
	// RecordSampledRows records how many rows a sampling pass read.
	//
	// Parameters:
	//   - rows: Number of rows sampled (0 if the sample was empty)
	RecordSampledRows(rows int)

	// RecordClusterStatusFailure records a failed cluster status query.
	RecordClusterStatusFailure()

	// RecordSizeLookup records a partition size lookup outcome.
	//
	// Parameters:
	//   - result: "hit", "miss" (map built, id unknown) or "fallback" (no map)
	RecordSizeLookup(result string)
}

// PlannerMetrics defines metrics for slot assignment.
type PlannerMetrics interface {
	// RecordAssignment records one completed slot assignment.
	//
	// Parameters:
	//   - strategy: Strategy name ("locality_aware", "round_robin")
	//   - slots: Number of slots
	//   - partitions: Number of partitions
	//   - duration: Time taken in seconds
	RecordAssignment(strategy string, slots, partitions int, duration float64)

	// RecordLocalAssignments records how many partitions were placed by affinity.
	//
	// Parameters:
	//   - local: Partitions placed on a co-located slot in the affinity pass
	//   - remote: Partitions placed by the fill pass
	RecordLocalAssignments(local, remote int)

	// RecordRebalanceMoves records how many partitions the rebalance pass moved.
	RecordRebalanceMoves(moves int)
}

// PublisherMetrics defines metrics for publishing assignments.
type PublisherMetrics interface {
	// RecordPublish records an assignment publication attempt.
	//
	// Parameters:
	//   - success: true if all slots were written
	//   - version: Version written (0 on failure)
	RecordPublish(success bool, version int64)
}
