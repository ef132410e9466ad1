package scanplan

import "github.com/arloliu/scanplan/types"

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. Internal packages depend on `types` rather than on the root
// package, which avoids import cycles while still offering
// `scanplan.ScanSpec`, `scanplan.Logger`, etc. to users.
type (
	Partition         = types.Partition
	PartitionLocation = types.PartitionLocation
	ServerIdentity    = types.ServerIdentity
	TableDescriptor   = types.TableDescriptor
	WorkerEndpoint    = types.WorkerEndpoint
	ScanSpec          = types.ScanSpec
	SubScanSpec       = types.SubScanSpec
	SlotAssignment    = types.SlotAssignment
	StatsSnapshot     = types.StatsSnapshot
	ScanStats         = types.ScanStats
	EndpointAffinity  = types.EndpointAffinity
	Row               = types.Row
	Cell              = types.Cell
	ClusterStatus     = types.ClusterStatus
	ServerLoad        = types.ServerLoad
	PartitionLoad     = types.PartitionLoad

	SchemaMismatchError = types.SchemaMismatchError
)

// Re-export interfaces from the types package for convenience.
type (
	PartitionCatalog      = types.PartitionCatalog
	ClusterStatusProvider = types.ClusterStatusProvider
	RowSampler            = types.RowSampler
	SlotStrategy          = types.SlotStrategy
	PlanNode              = types.PlanNode
	MetricsCollector      = types.MetricsCollector
	Logger                = types.Logger
)
