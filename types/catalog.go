package types

import (
	"context"
	"iter"
)

// PartitionCatalog resolves tables and scan bounds into partitions.
//
// Implementations query the store's metadata service:
//   - Static: fixed in-memory topology for tests and tools
//   - KV: topology published into a NATS JetStream KV bucket
//   - Custom: a client of the real master service
//
// Discovery failures are fatal to planning and must wrap ErrCatalogUnavailable.
type PartitionCatalog interface {
	// DescribeTable returns the schema facts for a table.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - table: Table name
	//
	// Returns:
	//   - TableDescriptor: Table description
	//   - error: ErrTableNotFound or ErrCatalogUnavailable (wrapped)
	DescribeTable(ctx context.Context, table string) (TableDescriptor, error)

	// ListPartitions returns the partitions of spec.Table with their owning servers.
	//
	// The returned slice is a snapshot; callers must not expect it to track
	// later topology changes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - spec: Scan whose table and bounds select the partitions
	//
	// Returns:
	//   - []PartitionLocation: Ordered partition locations
	//   - error: ErrTableNotFound or ErrCatalogUnavailable (wrapped)
	ListPartitions(ctx context.Context, spec ScanSpec) ([]PartitionLocation, error)
}

// ClusterStatusProvider reports per-server partition storage footprints.
//
// Failures are recoverable: callers log them and fall back to heuristics.
type ClusterStatusProvider interface {
	// CurrentLoad returns the current cluster status.
	CurrentLoad(ctx context.Context) (ClusterStatus, error)
}

// RowSampler produces a bounded sample of rows from a scan range.
type RowSampler interface {
	// Sample returns a lazy sequence of at most maxRows rows from the spec's range.
	//
	// The sequence is finite and single-use. An empty sequence is valid.
	// Errors yielded by the sequence end the sample.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - spec: Scan whose range is sampled
	//   - maxRows: Upper bound on rows produced
	//
	// Returns:
	//   - iter.Seq2[Row, error]: Sampled rows
	//   - error: Failure opening the sample
	Sample(ctx context.Context, spec ScanSpec, maxRows int) (iter.Seq2[Row, error], error)
}
