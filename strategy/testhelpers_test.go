package strategy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/scanplan/types"
)

func endpoints(hosts ...string) []types.WorkerEndpoint {
	eps := make([]types.WorkerEndpoint, len(hosts))
	for i, h := range hosts {
		eps[i] = types.WorkerEndpoint{Address: h, Port: 31010}
	}

	return eps
}

func partitionsOn(hosts ...string) []types.PartitionLocation {
	out := make([]types.PartitionLocation, len(hosts))
	for i, h := range hosts {
		out[i] = types.PartitionLocation{
			Partition: types.Partition{ID: fmt.Sprintf("r%02d", i), Table: "t", StartKey: []byte(fmt.Sprintf("k%02d", i))},
			Server:    types.ServerIdentity{Host: h, Port: 16020},
		}
	}

	return out
}

func uniformPartitions(n int, host string) []types.PartitionLocation {
	hosts := make([]string, n)
	for i := range hosts {
		hosts[i] = host
	}

	return partitionsOn(hosts...)
}

func counts(slots [][]int) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = len(s)
	}

	return out
}

// requireFairAndComplete checks every partition appears once and counts are in [floor, ceil].
func requireFairAndComplete(t *testing.T, slots [][]int, p int) {
	t.Helper()

	n := len(slots)
	floor, ceil := p/n, (p+n-1)/n
	seen := make(map[int]int, p)
	for s, list := range slots {
		require.GreaterOrEqual(t, len(list), floor, "slot %d below floor", s)
		require.LessOrEqual(t, len(list), ceil, "slot %d above ceil", s)
		for _, idx := range list {
			seen[idx]++
		}
	}
	require.Len(t, seen, p)
	for idx, c := range seen {
		require.Equal(t, 1, c, "partition %d assigned %d times", idx, c)
	}
}
