package source

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/scanplan/types"
)

func loc(id, start, host string) types.PartitionLocation {
	p := types.PartitionLocation{
		Partition: types.Partition{ID: id, Table: "orders"},
		Server:    types.ServerIdentity{Host: host, Port: 16020},
	}
	if start != "" {
		p.StartKey = []byte(start)
	}

	return p
}

func TestStaticCatalog(t *testing.T) {
	ctx := context.Background()
	desc := types.TableDescriptor{Name: "orders", Families: []string{"cf"}}

	t.Run("returns partitions sorted by start key", func(t *testing.T) {
		c := NewStaticCatalog()
		c.PutTable(desc, []types.PartitionLocation{loc("r3", "m", "h1"), loc("r1", "", "h2"), loc("r2", "f", "h1")})

		got, err := c.ListPartitions(ctx, types.ScanSpec{Table: "orders"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.Equal(t, "r1", got[0].ID)
		require.Equal(t, "r2", got[1].ID)
		require.Equal(t, "r3", got[2].ID)

		d, err := c.DescribeTable(ctx, "orders")
		require.NoError(t, err)
		require.Equal(t, desc, d)
		require.Equal(t, []string{"orders"}, c.Tables())
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewStaticCatalog()
		c.PutTable(desc, []types.PartitionLocation{loc("r1", "", "h1")})

		got, err := c.ListPartitions(ctx, types.ScanSpec{Table: "orders"})
		require.NoError(t, err)
		got[0].ID = "changed"

		again, err := c.ListPartitions(ctx, types.ScanSpec{Table: "orders"})
		require.NoError(t, err)
		require.Equal(t, "r1", again[0].ID)
	})

	t.Run("unknown table", func(t *testing.T) {
		c := NewStaticCatalog()
		_, err := c.DescribeTable(ctx, "missing")
		require.ErrorIs(t, err, types.ErrTableNotFound)
		_, err = c.ListPartitions(ctx, types.ScanSpec{Table: "missing"})
		require.ErrorIs(t, err, types.ErrTableNotFound)
	})

	t.Run("remove table", func(t *testing.T) {
		c := NewStaticCatalog()
		c.PutTable(desc, nil)
		c.RemoveTable("orders")
		_, err := c.DescribeTable(ctx, "orders")
		require.ErrorIs(t, err, types.ErrTableNotFound)
	})

	t.Run("concurrent readers and writers", func(t *testing.T) {
		c := NewStaticCatalog()
		c.PutTable(desc, []types.PartitionLocation{loc("r1", "", "h1")})

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					if i%2 == 0 {
						c.PutTable(desc, []types.PartitionLocation{loc("r1", "", "h1"), loc("r2", "k", "h2")})
						continue
					}
					_, err := c.ListPartitions(ctx, types.ScanSpec{Table: "orders"})
					if err != nil {
						t.Errorf("list failed: %v", err)
					}
				}
			}()
		}
		wg.Wait()
	})
}

func TestStaticClusterStatus(t *testing.T) {
	ctx := context.Background()
	status := types.ClusterStatus{Servers: map[string]types.ServerLoad{"h1:16020": {}}}
	s := NewStaticClusterStatus(status)

	got, err := s.CurrentLoad(ctx)
	require.NoError(t, err)
	require.Equal(t, status, got)

	s.SetError(errors.New("master unreachable"))
	_, err = s.CurrentLoad(ctx)
	require.ErrorIs(t, err, types.ErrClusterStatusUnavailable)
	require.ErrorContains(t, err, "master unreachable")

	s.SetError(nil)
	s.Update(types.ClusterStatus{})
	got, err = s.CurrentLoad(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Servers)
}

func TestStaticSampler(t *testing.T) {
	ctx := context.Background()
	s := NewStaticSampler()
	s.PutRows("orders", []types.Row{
		{Key: []byte("c")}, {Key: []byte("a")}, {Key: []byte("b")}, {Key: []byte("d")},
	})

	collect := func(t *testing.T, spec types.ScanSpec, maxRows int) []string {
		t.Helper()
		rows, err := s.Sample(ctx, spec, maxRows)
		require.NoError(t, err)
		var keys []string
		for r, err := range rows {
			require.NoError(t, err)
			keys = append(keys, string(r.Key))
		}

		return keys
	}

	t.Run("bounded by max rows", func(t *testing.T) {
		require.Equal(t, []string{"a", "b"}, collect(t, types.ScanSpec{Table: "orders"}, 2))
	})

	t.Run("bounded by spec range", func(t *testing.T) {
		spec := types.ScanSpec{Table: "orders", StartRow: []byte("b"), StopRow: []byte("d")}
		require.Equal(t, []string{"b", "c"}, collect(t, spec, 10))
	})

	t.Run("unknown table is empty", func(t *testing.T) {
		require.Empty(t, collect(t, types.ScanSpec{Table: "none"}, 10))
	})

	t.Run("canceled context ends sequence with error", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		rows, err := s.Sample(cctx, types.ScanSpec{Table: "orders"}, 10)
		require.NoError(t, err)
		for _, err := range rows {
			require.ErrorIs(t, err, context.Canceled)
		}
	})
}
