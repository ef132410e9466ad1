package strategy

import (
	"time"

	"github.com/arloliu/scanplan/types"
)

// LocalityAware assigns partitions to slots co-located with their storage
// server while keeping per-slot counts fair.
type LocalityAware struct {
	logger  types.Logger
	metrics types.PlannerMetrics
}

var _ types.SlotStrategy = (*LocalityAware)(nil)

// NewLocalityAware creates a new locality-aware strategy.
//
// Parameters:
//   - opts: Optional configuration (WithLogger, WithMetrics)
//
// Returns:
//   - *LocalityAware: Initialized strategy
//
// Example:
//
//	s := strategy.NewLocalityAware(strategy.WithLogger(logger))
//	slots, err := s.Assign(endpoints, partitions)
func NewLocalityAware(opts ...Option) *LocalityAware {
	o := applyOptions(opts)

	return &LocalityAware{logger: o.logger, metrics: o.metrics}
}

// Assign computes a locality-preferring fair assignment.
//
// The algorithm:
//  1. Affinity: each partition whose server host matches an endpoint address
//     goes to that host's slots in rotation
//  2. Fill: remaining partitions go to the least-loaded slot, first to slots
//     below floor(P/N), then to slots below ceil(P/N)
//  3. Rebalance: partitions move from the fullest to the emptiest slot until
//     every count lies in [floor(P/N), ceil(P/N)], preferring to move
//     partitions that are not local to the donor
//
// Partitions are processed in the given order, so callers must supply a
// deterministic order (GroupScan sorts by start key).
//
// Parameters:
//   - endpoints: One entry per slot; several may share an address
//   - partitions: Partitions to place
//
// Returns:
//   - [][]int: Per-slot partition indexes
//   - error: ErrNoEndpoints, ErrTooManySlots or ErrAssignmentInvariant
func (la *LocalityAware) Assign(endpoints []types.WorkerEndpoint, partitions []types.PartitionLocation) ([][]int, error) {
	start := time.Now()

	floor, ceil, err := fairBounds(len(endpoints), len(partitions))
	if err != nil {
		return nil, err
	}

	slots := make([][]int, len(endpoints))
	for i := range slots {
		slots[i] = make([]int, 0, ceil)
	}

	remaining := la.assignLocal(endpoints, partitions, slots)
	local := len(partitions) - len(remaining)
	la.logger.Debug("locality pass complete",
		"local", local,
		"remaining", len(remaining),
		"elapsedMicros", time.Since(start).Microseconds(),
	)

	fill(slots, remaining, floor, ceil)
	moves := rebalance(slots, endpoints, partitions, floor, ceil)

	if err := verifyAssignment(slots, len(partitions), floor, ceil); err != nil {
		la.logger.Error("computed assignment is invalid", "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	la.metrics.RecordAssignment("locality_aware", len(endpoints), len(partitions), elapsed.Seconds())
	la.metrics.RecordLocalAssignments(local, len(partitions)-local)
	la.metrics.RecordRebalanceMoves(moves)
	la.logger.Debug("slot assignment complete",
		"slots", len(endpoints),
		"partitions", len(partitions),
		"moves", moves,
		"elapsedMicros", elapsed.Microseconds(),
	)

	return slots, nil
}

// assignLocal places partitions on slots sharing their server's host and
// returns the indexes of partitions that had no local slot.
func (la *LocalityAware) assignLocal(endpoints []types.WorkerEndpoint, partitions []types.PartitionLocation, slots [][]int) []int {
	hostSlots := make(map[string][]int, len(endpoints))
	for i, ep := range endpoints {
		hostSlots[ep.Address] = append(hostSlots[ep.Address], i)
	}

	var remaining []int
	for i, p := range partitions {
		queue := hostSlots[p.Server.Host]
		if len(queue) == 0 {
			remaining = append(remaining, i)
			continue
		}
		s := queue[0]
		slots[s] = append(slots[s], i)
		// rotate so the host's next local partition lands on its next slot
		hostSlots[p.Server.Host] = append(queue[1:], s)
	}

	return remaining
}

// fill places the remaining partitions on the least-loaded slots.
func fill(slots [][]int, remaining []int, floor, ceil int) {
	if len(remaining) == 0 {
		return
	}

	below := func(limit int) *slotHeap {
		h := newMinHeap(slots)
		for s := range slots {
			if len(slots[s]) < limit {
				h.push(s)
			}
		}

		return h
	}

	h := below(floor)
	for _, idx := range remaining {
		if h.Len() == 0 {
			// Every slot reached floor; top up to ceil.
			h = below(ceil)
		}
		s := h.pop()
		slots[s] = append(slots[s], idx)
		if len(slots[s]) < ceil {
			h.push(s)
		}
	}
}

// rebalance moves partitions until every slot holds between floor and ceil
// partitions and returns the number of moves.
func rebalance(slots [][]int, endpoints []types.WorkerEndpoint, partitions []types.PartitionLocation, floor, ceil int) int {
	minHeap := newMinHeap(slots)
	maxHeap := newMaxHeap(slots)
	for s := range slots {
		push(minHeap, maxHeap, slots, s, floor, ceil)
	}

	moves := 0
	for {
		minCount, okMin := minHeap.headCount()
		maxCount, okMax := maxHeap.headCount()
		if !okMin || !okMax || (minCount >= floor && maxCount <= ceil) {
			return moves
		}

		to := minHeap.pop()
		from := maxHeap.pop()

		pos := movablePosition(slots[from], endpoints[from].Address, partitions)
		idx := slots[from][pos]
		slots[from] = append(slots[from][:pos], slots[from][pos+1:]...)
		slots[to] = append(slots[to], idx)
		moves++

		push(minHeap, maxHeap, slots, from, floor, ceil)
		push(minHeap, maxHeap, slots, to, floor, ceil)
	}
}

// push files a slot into the heap matching its count band. With ceil at most
// floor+1 the two bands never overlap.
func push(minHeap, maxHeap *slotHeap, slots [][]int, s, floor, ceil int) {
	n := len(slots[s])
	if n < ceil {
		minHeap.push(s)
	}
	if n > floor {
		maxHeap.push(s)
	}
}

// movablePosition picks the last partition in list that is not stored on
// host, or the last partition when all of them are.
func movablePosition(list []int, host string, partitions []types.PartitionLocation) int {
	for i := len(list) - 1; i >= 0; i-- {
		if partitions[list[i]].Server.Host != host {
			return i
		}
	}

	return len(list) - 1
}
