package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/scanplan/types"
)

func TestNopMetrics(t *testing.T) {
	var m types.MetricsCollector = NewNop()

	require.NotPanics(t, func() {
		m.RecordSampledRows(100)
		m.RecordClusterStatusFailure()
		m.RecordSizeLookup("hit")
		m.RecordAssignment("locality_aware", 3, 10, 0.001)
		m.RecordLocalAssignments(4, 6)
		m.RecordRebalanceMoves(-1)
		m.RecordPublish(true, 7)
	})
}
