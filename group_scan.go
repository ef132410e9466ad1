package scanplan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/scanplan/cost"
	"github.com/arloliu/scanplan/internal/logger"
	"github.com/arloliu/scanplan/internal/metrics"
	"github.com/arloliu/scanplan/stats"
	"github.com/arloliu/scanplan/strategy"
	"github.com/arloliu/scanplan/types"
)

// RowKeyColumn is the pseudo-column naming the row key. It is valid for every table.
const RowKeyColumn = "row_key"

// Compile-time assertion that GroupScan implements PlanNode.
var _ types.PlanNode = (*GroupScan)(nil)

// GroupScan is the plan node for one range scan over a partitioned table.
//
// A GroupScan is built once per scan plan. Construction discovers the
// partitions covering the scan range, gathers statistics and validates the
// requested columns. After that the node is read-only: WithColumns and
// Specialize return modified copies and AssignSlots is a pure function of
// its arguments, so one GroupScan may be used from several goroutines.
type GroupScan struct {
	spec       ScanSpec
	columns    []string
	table      TableDescriptor
	partitions []PartitionLocation
	estimator  *stats.Estimator
	scanSize   int64

	filterPushedDown bool

	strategy SlotStrategy
	logger   Logger
	metrics  MetricsCollector
}

// SubScan is the work handed to one execution slot.
type SubScan struct {
	// Slot is the slot index the sub-scans were assigned to.
	Slot int `json:"slot" yaml:"slot"`

	// Columns are the projected columns; empty means all columns.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Scans are the per-partition fragments, in assignment order.
	Scans []SubScanSpec `json:"scans" yaml:"scans"`
}

// NewGroupScan plans a scan of spec over the partitions reported by catalog.
//
// Construction runs the blocking steps of planning: the table is described,
// its partitions are listed and trimmed to the scan range, rows are sampled
// and the cluster status is queried. Catalog failures are fatal. Sampler and
// cluster status failures degrade the estimates and are only logged.
//
// Parameters:
//   - ctx: Context for cancellation; each external call is also bounded by cfg.OperationTimeout
//   - cfg: Configuration (missing values are filled with defaults)
//   - catalog: Partition catalog (required)
//   - status: Cluster status provider (nil disables the size map)
//   - sampler: Row sampler (nil disables sampling)
//   - spec: Scan to plan
//   - columns: Projected columns; nil, empty or containing "*" selects all columns
//   - opts: Optional logger, metrics and strategy
//
// Returns:
//   - *GroupScan: Ready plan node
//   - error: ErrInvalidConfig, ErrCatalogRequired, ErrTableNotFound,
//     ErrCatalogUnavailable or ErrSchemaMismatch (wrapped)
//
// Example:
//
//	cfg := scanplan.DefaultConfig()
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler,
//	    scanplan.ScanSpec{Table: "events"}, []string{"d:payload"})
//	if err != nil {
//	    return err
//	}
//	assignment, err := gs.AssignSlots(endpoints)
func NewGroupScan(
	ctx context.Context,
	cfg *Config,
	catalog PartitionCatalog,
	status ClusterStatusProvider,
	sampler RowSampler,
	spec ScanSpec,
	columns []string,
	opts ...Option,
) (*GroupScan, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if spec.Table == "" {
		return nil, fmt.Errorf("%w: scan table is empty", ErrInvalidConfig)
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &groupScanOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	slotStrategy := options.strategy
	if slotStrategy == nil {
		slotStrategy = newStrategy(cfg.Strategy, loggerInstance, metricsCollector)
	}

	start := time.Now()

	desc, err := describeTable(ctx, cfg.OperationTimeout, catalog, spec.Table)
	if err != nil {
		return nil, err
	}

	all, err := listPartitions(ctx, cfg.OperationTimeout, catalog, spec)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b PartitionLocation) int { return a.Compare(b.Partition) })

	est, err := stats.NewEstimator(ctx, cfg.statsConfig(), spec, all, sampler, status,
		stats.WithLogger(loggerInstance),
		stats.WithMetrics(metricsCollector),
	)
	if err != nil {
		return nil, fmt.Errorf("estimate statistics for table %s: %w", spec.Table, err)
	}

	partitions := trimToRange(spec, all)
	var scanSize int64
	for _, p := range partitions {
		scanSize += est.PartitionSizeBytes(p.ID)
	}

	g := &GroupScan{
		spec:       spec,
		columns:    slices.Clone(columns),
		table:      desc,
		partitions: partitions,
		estimator:  est,
		scanSize:   scanSize,
		strategy:   slotStrategy,
		logger:     loggerInstance,
		metrics:    metricsCollector,
	}
	if err := g.verifyColumns(); err != nil {
		return nil, err
	}

	loggerInstance.Debug("group scan planned",
		"table", spec.Table,
		"partitions", len(partitions),
		"tablePartitions", len(all),
		"scanSizeBytes", scanSize,
		"elapsedMicros", time.Since(start).Microseconds(),
	)

	return g, nil
}

func newStrategy(name string, l Logger, m MetricsCollector) SlotStrategy {
	if name == StrategyRoundRobin {
		return strategy.NewRoundRobin(strategy.WithLogger(l), strategy.WithMetrics(m))
	}

	return strategy.NewLocalityAware(strategy.WithLogger(l), strategy.WithMetrics(m))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}

func describeTable(ctx context.Context, timeout time.Duration, catalog PartitionCatalog, table string) (TableDescriptor, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	desc, err := catalog.DescribeTable(ctx, table)
	if err != nil {
		return TableDescriptor{}, catalogError("describe table", table, err)
	}

	return desc, nil
}

func listPartitions(ctx context.Context, timeout time.Duration, catalog PartitionCatalog, spec ScanSpec) ([]PartitionLocation, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	partitions, err := catalog.ListPartitions(ctx, spec)
	if err != nil {
		return nil, catalogError("list partitions of", spec.Table, err)
	}

	return slices.Clone(partitions), nil
}

// catalogError makes sure a discovery failure is classified as either
// ErrTableNotFound or ErrCatalogUnavailable.
func catalogError(op, table string, err error) error {
	if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrCatalogUnavailable) {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}

	return fmt.Errorf("%w: %s %s: %w", ErrCatalogUnavailable, op, table, err)
}

// trimToRange keeps the partitions from the one containing StartRow up to
// and including the one containing StopRow. partitions must be sorted.
func trimToRange(spec ScanSpec, partitions []PartitionLocation) []PartitionLocation {
	out := make([]PartitionLocation, 0, len(partitions))
	found := len(spec.StartRow) == 0
	for _, p := range partitions {
		if !found && !p.ContainsRow(spec.StartRow) {
			continue
		}
		found = true
		out = append(out, p)
		if len(spec.StopRow) > 0 && p.ContainsRow(spec.StopRow) {
			break
		}
	}

	return out
}

func (g *GroupScan) verifyColumns() error {
	if cost.AllColumns(g.columns) {
		return nil
	}

	for _, column := range g.columns {
		if column == RowKeyColumn {
			continue
		}
		family := rootSegment(column)
		if !g.table.HasFamily(family) {
			return &SchemaMismatchError{Table: g.table.Name, Column: column, Family: family}
		}
	}

	return nil
}

// rootSegment returns the column family part of a "family:qualifier" or
// "family.qualifier" column reference.
func rootSegment(column string) string {
	if i := strings.IndexAny(column, ":."); i >= 0 {
		return column[:i]
	}

	return column
}

// WithColumns returns a copy of the scan projecting the given columns.
//
// The receiver is not modified. Partitions and statistics are shared with
// the copy since both are read-only.
//
// Parameters:
//   - columns: Projected columns; nil, empty or containing "*" selects all columns
//
// Returns:
//   - *GroupScan: The copy
//   - error: *SchemaMismatchError if a column's family is not in the table
func (g *GroupScan) WithColumns(columns []string) (*GroupScan, error) {
	c := g.clone()
	c.columns = slices.Clone(columns)
	if err := c.verifyColumns(); err != nil {
		return nil, err
	}

	return c, nil
}

// WithFilterPushedDown returns a copy of the scan marked as carrying a pushed-down filter.
func (g *GroupScan) WithFilterPushedDown(pushed bool) *GroupScan {
	c := g.clone()
	c.filterPushedDown = pushed

	return c
}

// FilterPushedDown reports whether a filter was pushed into the scan spec.
func (g *GroupScan) FilterPushedDown() bool {
	return g.filterPushedDown
}

func (g *GroupScan) clone() *GroupScan {
	c := *g
	c.columns = slices.Clone(g.columns)

	return &c
}

// Specialize returns a copy of the scan. A scan is a leaf, so children must be empty.
func (g *GroupScan) Specialize(children []PlanNode) (PlanNode, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("%w: scan node takes no children, got %d", ErrInvalidChildren, len(children))
	}

	return g.clone(), nil
}

// AssignSlots distributes the scan's partitions over one slot per endpoint.
//
// Repeated calls with the same endpoints return the same assignment.
//
// Parameters:
//   - endpoints: One entry per slot, in slot order
//
// Returns:
//   - SlotAssignment: Sub-scans per slot
//   - error: ErrNoEndpoints, ErrTooManySlots or ErrAssignmentInvariant (wrapped)
func (g *GroupScan) AssignSlots(endpoints []WorkerEndpoint) (SlotAssignment, error) {
	if len(endpoints) == 0 {
		return SlotAssignment{}, fmt.Errorf("%w: table %s", ErrNoEndpoints, g.spec.Table)
	}
	if len(endpoints) > len(g.partitions) {
		return SlotAssignment{}, fmt.Errorf("%w: %d slots requested for %d partitions of table %s",
			ErrTooManySlots, len(endpoints), len(g.partitions), g.spec.Table)
	}

	indexes, err := g.strategy.Assign(endpoints, g.partitions)
	if err != nil {
		return SlotAssignment{}, fmt.Errorf("assign slots for table %s: %w", g.spec.Table, err)
	}

	slots := make([][]SubScanSpec, len(indexes))
	for i, list := range indexes {
		slots[i] = make([]SubScanSpec, 0, len(list))
		for _, p := range list {
			slots[i] = append(slots[i], types.NewSubScanSpec(g.spec, g.partitions[p]))
		}
	}

	return SlotAssignment{Slots: slots}, nil
}

// SpecificScan returns the work of one slot of an assignment.
//
// Parameters:
//   - assignment: Result of AssignSlots
//   - slot: Slot index
//
// Returns:
//   - SubScan: The slot's sub-scans with the scan's projected columns
//   - error: ErrSlotOutOfRange if slot is not in the assignment
func (g *GroupScan) SpecificScan(assignment SlotAssignment, slot int) (SubScan, error) {
	if slot < 0 || slot >= assignment.Len() {
		return SubScan{}, fmt.Errorf("%w: slot %d of %d", ErrSlotOutOfRange, slot, assignment.Len())
	}

	return SubScan{
		Slot:    slot,
		Columns: slices.Clone(g.columns),
		Scans:   slices.Clone(assignment.Slot(slot)),
	}, nil
}

// EstimateCost returns the scan statistics handed to the optimizer.
func (g *GroupScan) EstimateCost() ScanStats {
	return cost.Estimate(cost.Input{
		ScanSizeBytes: g.scanSize,
		Snapshot: types.StatsSnapshot{
			AvgRowSizeBytes: g.estimator.AvgRowSizeBytes(),
			AvgColsPerRow:   g.estimator.AvgColsPerRow(),
		},
		HasFilter: g.spec.HasFilter(),
		Columns:   g.columns,
	})
}

// OperatorAffinity returns, per distinct endpoint address, the number of the
// scan's partitions hosted on that address.
func (g *GroupScan) OperatorAffinity(endpoints []WorkerEndpoint) []EndpointAffinity {
	return cost.Affinity(endpoints, g.partitions)
}

// MaxParallelizationWidth returns the number of partitions to scan.
func (g *GroupScan) MaxParallelizationWidth() int {
	return len(g.partitions)
}

// Digest returns a stable textual description of the scan.
func (g *GroupScan) Digest() string {
	return fmt.Sprintf("GroupScan [spec=%s, columns=%v]", g.spec, g.columns)
}

// String implements fmt.Stringer.
func (g *GroupScan) String() string {
	return g.Digest()
}

// Fingerprint returns a 64-bit hash of the scan spec, the projected columns
// and the partition IDs. Two scans with the same fingerprint produce the
// same assignment for the same endpoints.
func (g *GroupScan) Fingerprint() uint64 {
	h := xxh3.New()
	write := func(b []byte) {
		_, _ = h.Write(b)
		_, _ = h.Write([]byte{0})
	}

	write([]byte(g.spec.Table))
	write(g.spec.StartRow)
	write(g.spec.StopRow)
	write(g.spec.Filter)
	for _, c := range g.columns {
		write([]byte(c))
	}
	_, _ = h.Write([]byte{1})
	for _, p := range g.partitions {
		write([]byte(p.ID))
		write([]byte(p.Server.Host))
	}

	return h.Sum64()
}

// PlanKey returns the fingerprint formatted for use as a KV key token.
func (g *GroupScan) PlanKey() string {
	return fmt.Sprintf("%016x", g.Fingerprint())
}

// Partitions returns a copy of the partitions to scan, sorted by start key.
func (g *GroupScan) Partitions() []PartitionLocation {
	return slices.Clone(g.partitions)
}

// Stats returns the statistics gathered at construction.
func (g *GroupScan) Stats() StatsSnapshot {
	return g.estimator.Snapshot()
}

// ScanSizeBytes returns the summed estimated size of the partitions to scan.
func (g *GroupScan) ScanSizeBytes() int64 {
	return g.scanSize
}

// Spec returns the scan spec.
func (g *GroupScan) Spec() ScanSpec {
	return g.spec
}

// Columns returns a copy of the projected columns.
func (g *GroupScan) Columns() []string {
	return slices.Clone(g.columns)
}

// Table returns the table descriptor captured at construction.
func (g *GroupScan) Table() TableDescriptor {
	return g.table
}
