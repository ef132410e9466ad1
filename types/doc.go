// Package types provides core type definitions and interfaces for the scanplan library.
//
// This package contains shared types that are used across multiple packages in the
// scanplan library. By keeping these types in a separate package, we avoid import cycles
// between the root scanplan package and its implementations.
//
// Key types:
//   - Partition, PartitionLocation: Key ranges and their owning servers
//   - ScanSpec, SubScanSpec: Logical scan and its per-partition fragments
//   - SlotAssignment: Slot index to sub-scan list mapping
//   - StatsSnapshot, ScanStats: Estimates for the optimizer
//   - PartitionCatalog, ClusterStatusProvider, RowSampler: External collaborators
//   - SlotStrategy, PlanNode: Planning contracts
//   - Logger, MetricsCollector: Observability interfaces
package types
