// Package strategy provides built-in slot assignment strategies.
//
// A strategy maps P partitions onto N execution slots (one per worker
// endpoint) and returns, for every slot, the ordered indexes of its
// partitions. The package includes two strategies:
//
//   - LocalityAware: places partitions on slots co-located with their storage
//     server, then fills and rebalances to fair counts (recommended)
//   - RoundRobin: deals partitions to slots in turn, ignoring locality
//
// # Guarantees
//
// Both strategies require 1 <= N <= P and return an assignment where:
//   - every partition index appears in exactly one slot
//   - every slot holds between floor(P/N) and ceil(P/N) partitions
//   - the same inputs, in the same order, always give the same output
//
// Custom strategies can be implemented by satisfying the types.SlotStrategy interface.
package strategy
