package strategy

import (
	"time"

	"github.com/arloliu/scanplan/types"
)

// RoundRobin implements locality-blind round-robin slot assignment.
type RoundRobin struct {
	metrics types.PlannerMetrics
}

var _ types.SlotStrategy = (*RoundRobin)(nil)

// NewRoundRobin creates a new round-robin strategy.
//
// The strategy deals partitions to slots in turn. It guarantees fair counts
// but ignores where partitions are stored, so it is mainly useful as a
// baseline against LocalityAware.
//
// Returns:
//   - *RoundRobin: Initialized round-robin strategy
//
// Example:
//
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil,
//	    scanplan.WithStrategy(strategy.NewRoundRobin()))
func NewRoundRobin(opts ...Option) *RoundRobin {
	o := applyOptions(opts)

	return &RoundRobin{metrics: o.metrics}
}

// Assign deals partition i to slot i mod N.
//
// Parameters:
//   - endpoints: One entry per slot
//   - partitions: Partitions to place, in order
//
// Returns:
//   - [][]int: Per-slot partition indexes
//   - error: ErrNoEndpoints or ErrTooManySlots
func (rr *RoundRobin) Assign(endpoints []types.WorkerEndpoint, partitions []types.PartitionLocation) ([][]int, error) {
	start := time.Now()

	if _, _, err := fairBounds(len(endpoints), len(partitions)); err != nil {
		return nil, err
	}

	slots := make([][]int, len(endpoints))
	for i := range partitions {
		s := i % len(endpoints)
		slots[s] = append(slots[s], i)
	}

	rr.metrics.RecordAssignment("round_robin", len(endpoints), len(partitions), time.Since(start).Seconds())

	return slots, nil
}
