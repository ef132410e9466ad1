package source

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/scanplan/types"
)

type staticTable struct {
	desc       types.TableDescriptor
	partitions []types.PartitionLocation
}

// StaticCatalog implements a partition catalog over in-memory tables.
//
// Many plans may read the catalog concurrently while tables are replaced.
type StaticCatalog struct {
	tables *xsync.Map[string, staticTable]
}

var _ types.PartitionCatalog = (*StaticCatalog)(nil)

// NewStaticCatalog creates an empty static catalog.
//
// Example:
//
//	catalog := source.NewStaticCatalog()
//	catalog.PutTable(types.TableDescriptor{Name: "orders", Families: []string{"cf"}}, locations)
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, nil, nil, spec, nil)
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{tables: xsync.NewMap[string, staticTable]()}
}

// PutTable adds or replaces a table and its partitions.
//
// Partitions are stored sorted by start key. The input slice is copied.
func (c *StaticCatalog) PutTable(desc types.TableDescriptor, partitions []types.PartitionLocation) {
	sorted := slices.Clone(partitions)
	slices.SortStableFunc(sorted, func(a, b types.PartitionLocation) int {
		return a.Compare(b.Partition)
	})
	c.tables.Store(desc.Name, staticTable{desc: desc, partitions: sorted})
}

// RemoveTable removes a table. Removing an unknown table is a no-op.
func (c *StaticCatalog) RemoveTable(name string) {
	c.tables.Delete(name)
}

// Tables returns the names of all tables, sorted.
func (c *StaticCatalog) Tables() []string {
	names := make([]string, 0, c.tables.Size())
	c.tables.Range(func(name string, _ staticTable) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	return names
}

// DescribeTable returns the table descriptor.
//
// Returns:
//   - types.TableDescriptor: Stored descriptor
//   - error: Wrapped ErrTableNotFound for unknown tables
func (c *StaticCatalog) DescribeTable(_ context.Context, table string) (types.TableDescriptor, error) {
	t, ok := c.tables.Load(table)
	if !ok {
		return types.TableDescriptor{}, fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
	}

	return t.desc, nil
}

// ListPartitions returns every partition of spec.Table ordered by start key.
//
// Range trimming against the spec bounds is left to the planner.
//
// Returns:
//   - []types.PartitionLocation: Copy of the stored partitions
//   - error: Wrapped ErrTableNotFound for unknown tables
func (c *StaticCatalog) ListPartitions(_ context.Context, spec types.ScanSpec) ([]types.PartitionLocation, error) {
	t, ok := c.tables.Load(spec.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, spec.Table)
	}

	return slices.Clone(t.partitions), nil
}

// StaticClusterStatus implements a cluster status provider over a fixed status.
type StaticClusterStatus struct {
	mu     sync.RWMutex
	status types.ClusterStatus
	err    error
}

var _ types.ClusterStatusProvider = (*StaticClusterStatus)(nil)

// NewStaticClusterStatus creates a provider that always reports status.
func NewStaticClusterStatus(status types.ClusterStatus) *StaticClusterStatus {
	return &StaticClusterStatus{status: status}
}

// Update replaces the reported status.
func (s *StaticClusterStatus) Update(status types.ClusterStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// SetError makes CurrentLoad fail with err until cleared with nil.
//
// This simulates an unreachable master for degraded-mode tests.
func (s *StaticClusterStatus) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// CurrentLoad returns the stored status or the injected error.
func (s *StaticClusterStatus) CurrentLoad(_ context.Context) (types.ClusterStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return types.ClusterStatus{}, fmt.Errorf("%w: %w", types.ErrClusterStatusUnavailable, s.err)
	}

	return s.status, nil
}

// StaticSampler implements a row sampler over in-memory rows per table.
type StaticSampler struct {
	rows *xsync.Map[string, []types.Row]
}

var _ types.RowSampler = (*StaticSampler)(nil)

// NewStaticSampler creates a sampler with no rows.
func NewStaticSampler() *StaticSampler {
	return &StaticSampler{rows: xsync.NewMap[string, []types.Row]()}
}

// PutRows sets the rows of a table. Rows are stored sorted by key.
func (s *StaticSampler) PutRows(table string, rows []types.Row) {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b types.Row) int {
		return bytes.Compare(a.Key, b.Key)
	})
	s.rows.Store(table, sorted)
}

// Sample yields up to maxRows rows of spec.Table whose keys fall in the spec bounds.
//
// A table without rows yields an empty sequence. The sequence stops early
// with ctx.Err() when the context is canceled.
func (s *StaticSampler) Sample(ctx context.Context, spec types.ScanSpec, maxRows int) (iter.Seq2[types.Row, error], error) {
	rows, _ := s.rows.Load(spec.Table)
	bounds := types.Partition{StartKey: spec.StartRow, StopKey: spec.StopRow}

	return func(yield func(types.Row, error) bool) {
		n := 0
		for _, r := range rows {
			if n >= maxRows {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(types.Row{}, err)
				return
			}
			if !bounds.ContainsRow(r.Key) {
				continue
			}
			n++
			if !yield(r, nil) {
				return
			}
		}
	}, nil
}
