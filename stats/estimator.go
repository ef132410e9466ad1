package stats

import (
	"context"
	"maps"
	"time"

	"github.com/arloliu/scanplan/internal/logger"
	"github.com/arloliu/scanplan/internal/metrics"
	"github.com/arloliu/scanplan/types"
)

const (
	// DefaultSampleRowCount is the default maximum number of rows sampled.
	DefaultSampleRowCount = 100

	// DefaultRowCount is the assumed row count of a partition when no size map exists.
	DefaultRowCount int64 = 1 << 20

	// MiB is the multiplier from the megabyte figures of the cluster status to bytes.
	MiB int64 = 1 << 20
)

// Size lookup outcomes reported to metrics.
const (
	lookupHit      = "hit"
	lookupMiss     = "miss"
	lookupFallback = "fallback"
)

// Config controls how an Estimator gathers its inputs.
type Config struct {
	// SampleRowCount is the maximum number of rows to sample. Zero disables sampling.
	SampleRowCount int

	// SizeCalculatorEnabled enables building the size map from cluster status.
	SizeCalculatorEnabled bool

	// OperationTimeout bounds the sampling pass and the cluster status query.
	// Zero means no timeout beyond the caller's context.
	OperationTimeout time.Duration
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.EstimatorMetrics) Option {
	return func(e *Estimator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// Estimator answers per-partition size queries for one table scan.
type Estimator struct {
	table      string
	avgRowSize int64
	colsPerRow int64

	// sizes is nil when the size map was not built.
	sizes map[string]int64

	logger  types.Logger
	metrics types.EstimatorMetrics
}

// NewEstimator samples the scan range and builds the size map.
//
// The sampler and status provider may be nil, in which case the corresponding
// step is skipped. A sampler error or a cluster status error is logged and
// the defaults are kept; neither is returned.
//
// Parameters:
//   - ctx: Context for cancellation; each collaborator call is bounded by cfg.OperationTimeout
//   - cfg: Estimator configuration
//   - spec: Scan being estimated
//   - tablePartitions: Partitions of the scanned table; only their loads enter the size map
//   - sampler: Row sampler (optional)
//   - status: Cluster status provider (optional)
//   - opts: WithLogger, WithMetrics
//
// Returns:
//   - *Estimator: Ready estimator
//   - error: ctx.Err() if the context was already canceled
//
// Example:
//
//	est, err := stats.NewEstimator(ctx, stats.Config{SampleRowCount: 100, SizeCalculatorEnabled: true},
//	    spec, partitions, sampler, status)
//	size := est.PartitionSizeBytes("region-1")
func NewEstimator(
	ctx context.Context,
	cfg Config,
	spec types.ScanSpec,
	tablePartitions []types.PartitionLocation,
	sampler types.RowSampler,
	status types.ClusterStatusProvider,
	opts ...Option,
) (*Estimator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := &Estimator{
		table:      spec.Table,
		avgRowSize: 1,
		colsPerRow: 1,
		logger:     logger.NewNop(),
		metrics:    metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.SampleRowCount > 0 && sampler != nil {
		e.sample(ctx, cfg, spec, sampler)
	}

	if cfg.SizeCalculatorEnabled && status != nil {
		e.buildSizeMap(ctx, cfg, tablePartitions, status)
	}

	return e, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}

func (e *Estimator) sample(ctx context.Context, cfg Config, spec types.ScanSpec, sampler types.RowSampler) {
	ctx, cancel := withTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	rows, err := sampler.Sample(ctx, spec, cfg.SampleRowCount)
	if err != nil {
		e.logger.Warn("row sampling failed, using default row size", "table", spec.Table, "error", err)
		e.metrics.RecordSampledRows(0)

		return
	}

	var (
		totalSize  int64
		totalCells int64
		numRows    int64
	)
	for row, err := range rows {
		if err != nil {
			// Rows read so far still count toward the averages.
			e.logger.Warn("row sampling ended early", "table", spec.Table, "rows", numRows, "error", err)
			break
		}
		totalSize += row.Size()
		totalCells += int64(row.ColumnCount())
		numRows++
		if numRows >= int64(cfg.SampleRowCount) {
			break
		}
	}

	e.metrics.RecordSampledRows(int(numRows))

	if numRows > 0 {
		e.avgRowSize = max(totalSize/numRows, 1)
		e.colsPerRow = max(totalCells/numRows, 1)
	}

	e.logger.Debug("sampled table rows",
		"table", spec.Table,
		"rows", numRows,
		"avgRowSize", e.avgRowSize,
		"avgColsPerRow", e.colsPerRow,
	)
}

func (e *Estimator) buildSizeMap(
	ctx context.Context,
	cfg Config,
	tablePartitions []types.PartitionLocation,
	status types.ClusterStatusProvider,
) {
	ctx, cancel := withTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	cs, err := status.CurrentLoad(ctx)
	if err != nil {
		e.logger.Debug("cluster status unavailable, size map not built", "table", e.table, "error", err)
		e.metrics.RecordClusterStatusFailure()

		return
	}

	wanted := make(map[string]struct{}, len(tablePartitions))
	for _, p := range tablePartitions {
		wanted[p.ID] = struct{}{}
	}

	sizes := make(map[string]int64, len(tablePartitions))
	for _, server := range cs.Servers {
		for _, load := range server.Partitions {
			id := load.PartitionID
			if _, ok := wanted[id]; !ok {
				continue
			}
			sizes[id] = max(load.MemStoreMB+load.StoreFileMB, 1) * MiB
		}
	}
	e.sizes = sizes

	e.logger.Debug("built partition size map", "table", e.table, "partitions", len(sizes))
}

// PartitionSizeBytes returns the estimated size of a partition in bytes.
//
// Returns:
//   - int64: The size map entry; 0 if the map exists but lacks id;
//     AvgRowSizeBytes * DefaultRowCount if no map was built
func (e *Estimator) PartitionSizeBytes(id string) int64 {
	if e.sizes == nil {
		e.metrics.RecordSizeLookup(lookupFallback)

		return e.avgRowSize * DefaultRowCount
	}

	size, ok := e.sizes[id]
	if !ok {
		e.logger.Debug("partition missing from size map", "table", e.table, "partition", id)
		e.metrics.RecordSizeLookup(lookupMiss)

		return 0
	}
	e.metrics.RecordSizeLookup(lookupHit)

	return size
}

// AvgRowSizeBytes returns the sampled average row size (at least 1).
func (e *Estimator) AvgRowSizeBytes() int64 { return e.avgRowSize }

// AvgColsPerRow returns the sampled average cells per row (at least 1).
func (e *Estimator) AvgColsPerRow() int64 { return e.colsPerRow }

// SizeMapBuilt reports whether cluster status produced a size map.
func (e *Estimator) SizeMapBuilt() bool { return e.sizes != nil }

// Snapshot returns a copy of the estimator's state.
func (e *Estimator) Snapshot() types.StatsSnapshot {
	return types.StatsSnapshot{
		AvgRowSizeBytes: e.avgRowSize,
		AvgColsPerRow:   e.colsPerRow,
		PartitionSizes:  maps.Clone(e.sizes),
	}
}
