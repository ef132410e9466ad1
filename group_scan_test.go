package scanplan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/scanplan/internal/logger"
	"github.com/arloliu/scanplan/source"
	"github.com/arloliu/scanplan/stats"
	"github.com/arloliu/scanplan/strategy"
	"github.com/arloliu/scanplan/types"
)

const testTable = "t"

// boundaries for n partitions: "", "k01", "k02", ..., "" (last stop key open).
func fixturePartitions(hosts ...string) []PartitionLocation {
	out := make([]PartitionLocation, len(hosts))
	for i, h := range hosts {
		var start, stop []byte
		if i > 0 {
			start = []byte(fmt.Sprintf("k%02d", i))
		}
		if i < len(hosts)-1 {
			stop = []byte(fmt.Sprintf("k%02d", i+1))
		}
		out[i] = PartitionLocation{
			Partition: Partition{ID: fmt.Sprintf("r%02d", i), Table: testTable, StartKey: start, StopKey: stop},
			Server:    ServerIdentity{Host: h, Port: 16020},
		}
	}

	return out
}

func sameHost(n int, host string) []PartitionLocation {
	hosts := make([]string, n)
	for i := range hosts {
		hosts[i] = host
	}

	return fixturePartitions(hosts...)
}

func newCatalog(partitions []PartitionLocation) *source.StaticCatalog {
	c := source.NewStaticCatalog()
	c.PutTable(TableDescriptor{Name: testTable, Families: []string{"d", "m"}}, partitions)

	return c
}

// oneMiBEach reports 1 MiB for every partition.
func oneMiBEach(partitions []PartitionLocation) *source.StaticClusterStatus {
	servers := make(map[string]ServerLoad)
	for _, p := range partitions {
		name := p.Server.String()
		load, ok := servers[name]
		if !ok {
			load = ServerLoad{Server: p.Server, Partitions: make(map[string]PartitionLoad)}
		}
		load.Partitions[p.ID] = PartitionLoad{PartitionID: p.ID, Table: testTable, MemStoreMB: 1}
		servers[name] = load
	}

	return source.NewStaticClusterStatus(ClusterStatus{Servers: servers})
}

func noSamplingConfig() Config {
	cfg := TestConfig()
	cfg.SampleRowCount = 0

	return cfg
}

type countingSampler struct {
	calls int
}

func (s *countingSampler) Sample(context.Context, ScanSpec, int) (iter.Seq2[Row, error], error) {
	s.calls++

	return func(func(Row, error) bool) {}, nil
}

type failingCatalog struct {
	err error
}

func (c failingCatalog) DescribeTable(context.Context, string) (TableDescriptor, error) {
	return TableDescriptor{Name: testTable, Families: []string{"d"}}, nil
}

func (c failingCatalog) ListPartitions(context.Context, ScanSpec) ([]PartitionLocation, error) {
	return nil, c.err
}

func mustGroupScan(t *testing.T, cfg Config, partitions []PartitionLocation, spec ScanSpec, columns []string, opts ...Option) *GroupScan {
	t.Helper()

	opts = append([]Option{WithLogger(logger.NewTest(t))}, opts...)
	gs, err := NewGroupScan(context.Background(), &cfg, newCatalog(partitions), oneMiBEach(partitions), nil,
		spec, columns, opts...)
	require.NoError(t, err)

	return gs
}

func TestNewGroupScan_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	partitions := sameHost(3, "host-a")
	spec := ScanSpec{Table: testTable}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewGroupScan(ctx, nil, newCatalog(partitions), nil, nil, spec, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil catalog", func(t *testing.T) {
		cfg := TestConfig()
		_, err := NewGroupScan(ctx, &cfg, nil, nil, nil, spec, nil)
		require.ErrorIs(t, err, ErrCatalogRequired)
	})

	t.Run("empty table name", func(t *testing.T) {
		cfg := TestConfig()
		_, err := NewGroupScan(ctx, &cfg, newCatalog(partitions), nil, nil, ScanSpec{}, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := TestConfig()
		cfg.Strategy = "random"
		_, err := NewGroupScan(ctx, &cfg, newCatalog(partitions), nil, nil, spec, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("unknown table", func(t *testing.T) {
		cfg := TestConfig()
		_, err := NewGroupScan(ctx, &cfg, newCatalog(partitions), nil, nil, ScanSpec{Table: "missing"}, nil)
		require.ErrorIs(t, err, ErrTableNotFound)
	})

	t.Run("catalog failure is classified as unavailable", func(t *testing.T) {
		cfg := TestConfig()
		cause := errors.New("connection refused")
		_, err := NewGroupScan(ctx, &cfg, failingCatalog{err: cause}, nil, nil, spec, nil)
		require.ErrorIs(t, err, ErrCatalogUnavailable)
		require.ErrorIs(t, err, cause)
	})

	t.Run("canceled context", func(t *testing.T) {
		cfg := TestConfig()
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewGroupScan(canceled, &cfg, newCatalog(partitions), nil, nil, spec, nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewGroupScan_RangeTrimming(t *testing.T) {
	t.Parallel()

	// r00 [, k01) r01 [k01, k02) r02 [k02, k03) r03 [k03, k04) r04 [k04, )
	partitions := sameHost(5, "host-a")
	ids := func(gs *GroupScan) []string {
		var out []string
		for _, p := range gs.Partitions() {
			out = append(out, p.ID)
		}

		return out
	}

	t.Run("unbounded scan keeps every partition", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil)
		require.Equal(t, []string{"r00", "r01", "r02", "r03", "r04"}, ids(gs))
		require.Equal(t, 5, gs.MaxParallelizationWidth())
	})

	t.Run("start and stop rows select the containing partitions", func(t *testing.T) {
		spec := ScanSpec{Table: testTable, StartRow: []byte("k01x"), StopRow: []byte("k03x")}
		gs := mustGroupScan(t, noSamplingConfig(), partitions, spec, nil)
		require.Equal(t, []string{"r01", "r02", "r03"}, ids(gs))
	})

	t.Run("start row only", func(t *testing.T) {
		spec := ScanSpec{Table: testTable, StartRow: []byte("k04")}
		gs := mustGroupScan(t, noSamplingConfig(), partitions, spec, nil)
		require.Equal(t, []string{"r04"}, ids(gs))
	})

	t.Run("stop row only", func(t *testing.T) {
		spec := ScanSpec{Table: testTable, StopRow: []byte("k00z")}
		gs := mustGroupScan(t, noSamplingConfig(), partitions, spec, nil)
		require.Equal(t, []string{"r00"}, ids(gs))
	})

	t.Run("unsorted catalog output is sorted by start key", func(t *testing.T) {
		shuffled := []PartitionLocation{partitions[3], partitions[0], partitions[4], partitions[2], partitions[1]}
		cfg := noSamplingConfig()
		catalog := &unsortedCatalog{partitions: shuffled}
		gs, err := NewGroupScan(context.Background(), &cfg, catalog, nil, nil, ScanSpec{Table: testTable}, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"r00", "r01", "r02", "r03", "r04"}, ids(gs))
	})

	t.Run("trimToRange on empty input", func(t *testing.T) {
		require.Empty(t, trimToRange(ScanSpec{StartRow: []byte("a")}, nil))
	})
}

type unsortedCatalog struct {
	partitions []PartitionLocation
}

func (c *unsortedCatalog) DescribeTable(context.Context, string) (TableDescriptor, error) {
	return TableDescriptor{Name: testTable, Families: []string{"d"}}, nil
}

func (c *unsortedCatalog) ListPartitions(context.Context, ScanSpec) ([]PartitionLocation, error) {
	return c.partitions, nil
}

func TestNewGroupScan_Statistics(t *testing.T) {
	t.Parallel()

	partitions := sameHost(4, "host-a")

	t.Run("scan size sums the size map", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil)
		require.Equal(t, 4*stats.MiB, gs.ScanSizeBytes())
		require.Len(t, gs.Stats().PartitionSizes, 4)
	})

	t.Run("sample row count zero never invokes the sampler", func(t *testing.T) {
		cfg := noSamplingConfig()
		sampler := &countingSampler{}
		gs, err := NewGroupScan(context.Background(), &cfg, newCatalog(partitions), nil, sampler,
			ScanSpec{Table: testTable}, nil)
		require.NoError(t, err)
		require.Zero(t, sampler.calls)
		require.EqualValues(t, 1, gs.Stats().AvgRowSizeBytes)
		require.EqualValues(t, 1, gs.Stats().AvgColsPerRow)
	})

	t.Run("cluster status failure falls back to the default row count", func(t *testing.T) {
		cfg := noSamplingConfig()
		status := oneMiBEach(partitions)
		status.SetError(errors.New("master unreachable"))

		gs, err := NewGroupScan(context.Background(), &cfg, newCatalog(partitions), status, nil,
			ScanSpec{Table: testTable}, nil)
		require.NoError(t, err)
		require.Nil(t, gs.Stats().PartitionSizes)
		require.Equal(t, 4*stats.DefaultRowCount, gs.ScanSizeBytes())
	})

	t.Run("size calculator disabled", func(t *testing.T) {
		cfg := noSamplingConfig()
		cfg.SizeCalculatorEnabled = false
		gs := mustGroupScan(t, cfg, partitions, ScanSpec{Table: testTable}, nil)
		require.Equal(t, 4*stats.DefaultRowCount, gs.ScanSizeBytes())
	})
}

func TestGroupScan_EstimateCost(t *testing.T) {
	t.Parallel()

	partitions := sameHost(4, "host-a")
	sampler := source.NewStaticSampler()
	// Each cell: key(3) + family(1) + qualifier(1) + value(11) + 9 = 25 bytes; 2 cells per row.
	row := func(key string) Row {
		return Row{Key: []byte(key), Cells: []Cell{
			{Family: []byte("d"), Qualifier: []byte("a"), Value: []byte("hello world")},
			{Family: []byte("d"), Qualifier: []byte("b"), Value: []byte("hello world")},
		}}
	}
	sampler.PutRows(testTable, []Row{row("k00"), row("k02")})

	build := func(t *testing.T, spec ScanSpec, columns []string) *GroupScan {
		cfg := TestConfig()
		gs, err := NewGroupScan(context.Background(), &cfg, newCatalog(partitions), oneMiBEach(partitions), sampler,
			spec, columns, WithLogger(logger.NewTest(t)))
		require.NoError(t, err)

		return gs
	}

	t.Run("all columns, no filter", func(t *testing.T) {
		gs := build(t, ScanSpec{Table: testTable}, nil)
		require.EqualValues(t, 50, gs.Stats().AvgRowSizeBytes)
		require.EqualValues(t, 2, gs.Stats().AvgColsPerRow)

		st := gs.EstimateCost()
		require.EqualValues(t, (4*stats.MiB)/50, st.RowCount)
		require.InDelta(t, float64(4*stats.MiB), st.DiskCost, 0.001)
		require.InDelta(t, 1.0, st.CPUCost, 0.001)
		require.False(t, st.Exact)
	})

	t.Run("filter halves the row count", func(t *testing.T) {
		gs := build(t, ScanSpec{Table: testTable, Filter: []byte("f")}, nil)
		st := gs.EstimateCost()
		require.EqualValues(t, (4*stats.MiB)/50/2, st.RowCount)
	})

	t.Run("projection scales the disk cost", func(t *testing.T) {
		gs := build(t, ScanSpec{Table: testTable}, []string{"d:a"})
		st := gs.EstimateCost()
		require.InDelta(t, float64(2*stats.MiB), st.DiskCost, 0.001)
	})
}

func TestGroupScan_Columns(t *testing.T) {
	t.Parallel()

	partitions := sameHost(2, "host-a")

	t.Run("valid columns", func(t *testing.T) {
		for _, cols := range [][]string{nil, {"*"}, {RowKeyColumn}, {"d:payload", "m.count"}, {"d"}, {"x:y", "*"}} {
			gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, cols)
			require.Equal(t, cols, gs.Columns())
		}
	})

	t.Run("unknown family fails fast", func(t *testing.T) {
		cfg := noSamplingConfig()
		_, err := NewGroupScan(context.Background(), &cfg, newCatalog(partitions), nil, nil,
			ScanSpec{Table: testTable}, []string{"d:a", "x:b"})
		require.ErrorIs(t, err, ErrSchemaMismatch)

		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, "x", mismatch.Family)
		require.Equal(t, "x:b", mismatch.Column)
		require.Equal(t, testTable, mismatch.Table)
	})

	t.Run("WithColumns returns a validated copy", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, []string{"d:a"})

		narrowed, err := gs.WithColumns([]string{"m:b"})
		require.NoError(t, err)
		require.Equal(t, []string{"m:b"}, narrowed.Columns())
		require.Equal(t, []string{"d:a"}, gs.Columns())
		require.Equal(t, gs.Partitions(), narrowed.Partitions())

		_, err = gs.WithColumns([]string{"nope:c"})
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("rootSegment", func(t *testing.T) {
		require.Equal(t, "d", rootSegment("d:a"))
		require.Equal(t, "d", rootSegment("d.a.b"))
		require.Equal(t, "d", rootSegment("d"))
	})
}

func TestGroupScan_Specialize(t *testing.T) {
	t.Parallel()

	gs := mustGroupScan(t, noSamplingConfig(), sameHost(2, "host-a"), ScanSpec{Table: testTable}, nil)

	t.Run("no children", func(t *testing.T) {
		node, err := gs.Specialize(nil)
		require.NoError(t, err)
		require.Equal(t, gs.Digest(), node.Digest())
		require.NotSame(t, gs, node)
	})

	t.Run("children rejected", func(t *testing.T) {
		_, err := gs.Specialize([]PlanNode{gs})
		require.ErrorIs(t, err, ErrInvalidChildren)
	})
}

func TestGroupScan_AssignSlots(t *testing.T) {
	t.Parallel()

	endpoints := func(hosts ...string) []WorkerEndpoint {
		out := make([]WorkerEndpoint, len(hosts))
		for i, h := range hosts {
			out[i] = WorkerEndpoint{Address: h, Port: 31010}
		}

		return out
	}

	t.Run("ten partitions three slots without affinity", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), sameHost(10, "storage-1"), ScanSpec{Table: testTable}, nil)

		a, err := gs.AssignSlots(endpoints("w1", "w2", "w3"))
		require.NoError(t, err)
		require.ElementsMatch(t, []int{4, 3, 3}, a.Counts())

		seen := make(map[string]bool)
		for _, slot := range a.Slots {
			for _, sub := range slot {
				require.False(t, seen[sub.PartitionID], "partition %s assigned twice", sub.PartitionID)
				seen[sub.PartitionID] = true
			}
		}
		require.Len(t, seen, 10)
	})

	t.Run("local partitions go to the co-located slot", func(t *testing.T) {
		partitions := fixturePartitions("host-a", "host-a", "host-a", "host-z", "host-z", "host-z")
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil)

		a, err := gs.AssignSlots(endpoints("host-a", "host-b"))
		require.NoError(t, err)
		require.Equal(t, []int{3, 3}, a.Counts())
		for _, sub := range a.Slot(0) {
			require.Equal(t, "host-a", sub.Server)
		}
		require.Equal(t, "r00", a.Slot(0)[0].PartitionID)
		require.Equal(t, "r01", a.Slot(0)[1].PartitionID)
		require.Equal(t, "r02", a.Slot(0)[2].PartitionID)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		partitions := fixturePartitions("h1", "h2", "h1", "h3", "h2", "h1", "h1")
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil)
		eps := endpoints("h1", "h2", "h4")

		first, err := gs.AssignSlots(eps)
		require.NoError(t, err)
		second, err := gs.AssignSlots(eps)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("sub-scan bounds are narrowed to the scan bounds", func(t *testing.T) {
		spec := ScanSpec{Table: testTable, StartRow: []byte("k01x"), StopRow: []byte("k02x"), Filter: []byte("f")}
		gs := mustGroupScan(t, noSamplingConfig(), sameHost(4, "host-a"), spec, nil)

		a, err := gs.AssignSlots(endpoints("host-a"))
		require.NoError(t, err)
		require.Len(t, a.Slot(0), 2)
		require.Equal(t, []byte("k01x"), a.Slot(0)[0].StartRow)
		require.Equal(t, []byte("k02"), a.Slot(0)[0].StopRow)
		require.Equal(t, []byte("k02"), a.Slot(0)[1].StartRow)
		require.Equal(t, []byte("k02x"), a.Slot(0)[1].StopRow)
		require.Equal(t, []byte("f"), a.Slot(0)[1].Filter)
	})

	t.Run("more slots than partitions", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), sameHost(2, "host-a"), ScanSpec{Table: testTable}, nil)
		_, err := gs.AssignSlots(endpoints("a", "b", "c"))
		require.ErrorIs(t, err, ErrTooManySlots)
	})

	t.Run("no endpoints", func(t *testing.T) {
		gs := mustGroupScan(t, noSamplingConfig(), sameHost(2, "host-a"), ScanSpec{Table: testTable}, nil)
		_, err := gs.AssignSlots(nil)
		require.ErrorIs(t, err, ErrNoEndpoints)
	})

	t.Run("round robin from config", func(t *testing.T) {
		cfg := noSamplingConfig()
		cfg.Strategy = StrategyRoundRobin
		partitions := sameHost(4, "host-a")
		gs := mustGroupScan(t, cfg, partitions, ScanSpec{Table: testTable}, nil)

		a, err := gs.AssignSlots(endpoints("host-a", "host-b"))
		require.NoError(t, err)
		require.Equal(t, "r00", a.Slot(0)[0].PartitionID)
		require.Equal(t, "r02", a.Slot(0)[1].PartitionID)
		require.Equal(t, "r01", a.Slot(1)[0].PartitionID)
	})

	t.Run("strategy option overrides config", func(t *testing.T) {
		partitions := sameHost(4, "host-a")
		gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil,
			WithStrategy(strategy.NewRoundRobin()))

		a, err := gs.AssignSlots(endpoints("host-a", "host-b"))
		require.NoError(t, err)
		require.Equal(t, []int{2, 2}, a.Counts())
		require.Equal(t, "r01", a.Slot(1)[0].PartitionID)
	})
}

func TestGroupScan_SpecificScan(t *testing.T) {
	t.Parallel()

	gs := mustGroupScan(t, noSamplingConfig(), sameHost(3, "host-a"), ScanSpec{Table: testTable}, []string{"d:a"})
	a, err := gs.AssignSlots([]WorkerEndpoint{{Address: "w1"}, {Address: "w2"}})
	require.NoError(t, err)

	t.Run("valid slot", func(t *testing.T) {
		sub, err := gs.SpecificScan(a, 1)
		require.NoError(t, err)
		require.Equal(t, 1, sub.Slot)
		require.Equal(t, []string{"d:a"}, sub.Columns)
		require.Equal(t, a.Slot(1), sub.Scans)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := gs.SpecificScan(a, 2)
		require.ErrorIs(t, err, ErrSlotOutOfRange)
		_, err = gs.SpecificScan(a, -1)
		require.ErrorIs(t, err, ErrSlotOutOfRange)
	})
}

func TestGroupScan_Affinity(t *testing.T) {
	t.Parallel()

	partitions := fixturePartitions("host-a", "host-b", "host-a", "host-c")
	gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil)

	aff := gs.OperatorAffinity([]WorkerEndpoint{{Address: "host-a"}, {Address: "host-a", Port: 2}, {Address: "host-b"}, {Address: "host-d"}})
	require.Len(t, aff, 2)
	require.Equal(t, "host-a", aff[0].Endpoint.Address)
	require.InDelta(t, 2.0, aff[0].Affinity, 0.001)
	require.Equal(t, "host-b", aff[1].Endpoint.Address)
	require.InDelta(t, 1.0, aff[1].Affinity, 0.001)
}

func TestGroupScan_Identity(t *testing.T) {
	t.Parallel()

	partitions := sameHost(3, "host-a")
	spec := ScanSpec{Table: testTable, StartRow: []byte("k01")}

	a := mustGroupScan(t, noSamplingConfig(), partitions, spec, []string{"d:a"})
	b := mustGroupScan(t, noSamplingConfig(), partitions, spec, []string{"d:a"})
	c, err := a.WithColumns([]string{"d:b"})
	require.NoError(t, err)

	t.Run("fingerprint is stable", func(t *testing.T) {
		require.Equal(t, a.Fingerprint(), b.Fingerprint())
		require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
		require.Len(t, a.PlanKey(), 16)
	})

	t.Run("digest", func(t *testing.T) {
		require.Equal(t, `GroupScan [spec=ScanSpec [table=t, startRow="k01", stopRow="", filter=false], columns=[d:a]]`, a.Digest())
		require.Equal(t, a.Digest(), a.String())
	})

	t.Run("filter pushed down copy", func(t *testing.T) {
		pushed := a.WithFilterPushedDown(true)
		require.True(t, pushed.FilterPushedDown())
		require.False(t, a.FilterPushedDown())
	})

	t.Run("accessors", func(t *testing.T) {
		require.Equal(t, spec, a.Spec())
		require.Equal(t, testTable, a.Table().Name)
	})
}

func TestGroupScan_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "scanplan_test")
	partitions := sameHost(4, "host-a")
	gs := mustGroupScan(t, noSamplingConfig(), partitions, ScanSpec{Table: testTable}, nil, WithMetrics(m))

	_, err := gs.AssignSlots([]WorkerEndpoint{{Address: "host-a"}, {Address: "host-b"}})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["scanplan_test_planner_assignments_total"], "gathered: %v", names)
}

func TestPublicLoggers(t *testing.T) {
	t.Parallel()

	require.NotNil(t, NewSlogLogger(nil))
	require.NotNil(t, NewZapLogger(nil))

	var _ types.Logger = NewSlogLogger(nil)
}
