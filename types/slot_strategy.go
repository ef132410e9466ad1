package types

// SlotStrategy distributes partitions across parallel execution slots.
//
// Strategies implement different placement algorithms:
//   - LocalityAware: data-local placement followed by fairness rebalancing
//   - RoundRobin: locality-blind even distribution
//   - Custom: user-defined algorithms
//
// Strategy implementations should:
//   - Be deterministic (same input, including partition order, gives same output)
//   - Keep every slot's count within [floor(P/N), ceil(P/N)]
//   - Assign every partition exactly once
//   - Be stateless (no side effects between calls)
type SlotStrategy interface {
	// Assign computes the per-slot partition lists.
	//
	// Parameters:
	//   - endpoints: One entry per slot, in slot order
	//   - partitions: Partitions to place, in a fixed deterministic order
	//
	// Returns:
	//   - [][]int: For each slot, the ordered indexes into partitions
	//   - error: ErrNoEndpoints, ErrTooManySlots or ErrAssignmentInvariant
	Assign(endpoints []WorkerEndpoint, partitions []PartitionLocation) ([][]int, error)
}

// PlanNode is the capability contract a scan node offers to the optimizer.
type PlanNode interface {
	// EstimateCost returns the scan statistics for this node.
	EstimateCost() ScanStats

	// OperatorAffinity returns per-endpoint data locality weights.
	OperatorAffinity(endpoints []WorkerEndpoint) []EndpointAffinity

	// AssignSlots distributes the node's work across one slot per endpoint.
	AssignSlots(endpoints []WorkerEndpoint) (SlotAssignment, error)

	// MaxParallelizationWidth returns the largest useful slot count.
	MaxParallelizationWidth() int

	// Specialize returns a copy of the node with the given children.
	Specialize(children []PlanNode) (PlanNode, error)

	// Digest returns a stable textual description of the node.
	Digest() string
}
