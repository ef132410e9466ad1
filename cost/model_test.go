package cost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/scanplan/types"
)

func TestEstimate(t *testing.T) {
	snap := types.StatsSnapshot{AvgRowSizeBytes: 100, AvgColsPerRow: 4}

	t.Run("all columns without filter", func(t *testing.T) {
		st := Estimate(Input{ScanSizeBytes: 10_000, Snapshot: snap})
		require.EqualValues(t, 100, st.RowCount)
		require.InDelta(t, 10_000, st.DiskCost, 0)
		require.InDelta(t, CPUCost, st.CPUCost, 0)
		require.False(t, st.Exact)
	})

	t.Run("filter halves row count", func(t *testing.T) {
		st := Estimate(Input{ScanSizeBytes: 10_050, Snapshot: snap, HasFilter: true})
		require.EqualValues(t, 50, st.RowCount)
	})

	t.Run("specific columns scale disk cost", func(t *testing.T) {
		st := Estimate(Input{ScanSizeBytes: 10_000, Snapshot: snap, Columns: []string{"f:a"}})
		require.InDelta(t, 2_500, st.DiskCost, 0.001)
	})

	t.Run("wildcard reads every column", func(t *testing.T) {
		st := Estimate(Input{ScanSizeBytes: 10_000, Snapshot: snap, Columns: []string{"f:a", "*"}})
		require.InDelta(t, 10_000, st.DiskCost, 0)
	})

	t.Run("zero averages are treated as one", func(t *testing.T) {
		st := Estimate(Input{ScanSizeBytes: 42, Columns: []string{"f:a", "f:b"}})
		require.EqualValues(t, 42, st.RowCount)
		require.InDelta(t, 84, st.DiskCost, 0)
	})
}

func TestAffinity(t *testing.T) {
	parts := []types.PartitionLocation{
		{Partition: types.Partition{ID: "r1"}, Server: types.ServerIdentity{Host: "b"}},
		{Partition: types.Partition{ID: "r2"}, Server: types.ServerIdentity{Host: "a"}},
		{Partition: types.Partition{ID: "r3"}, Server: types.ServerIdentity{Host: "b"}},
		{Partition: types.Partition{ID: "r4"}, Server: types.ServerIdentity{Host: "z"}},
	}
	eps := []types.WorkerEndpoint{{Address: "a"}, {Address: "b"}, {Address: "a", Port: 2}, {Address: "c"}}

	got := Affinity(eps, parts)
	require.Equal(t, []types.EndpointAffinity{
		{Endpoint: types.WorkerEndpoint{Address: "a"}, Affinity: 1},
		{Endpoint: types.WorkerEndpoint{Address: "b"}, Affinity: 2},
	}, got)

	require.Empty(t, Affinity(nil, parts))
	require.Empty(t, Affinity(eps, nil))
}
