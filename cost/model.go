package cost

import "github.com/arloliu/scanplan/types"

const (
	// FilterSelectivity is the fraction of rows assumed to pass a pushed-down filter.
	FilterSelectivity = 0.5

	// CPUCost is the constant per-scan CPU cost reported to the optimizer.
	CPUCost = 1.0
)

// Input gathers everything Estimate needs.
type Input struct {
	// ScanSizeBytes is the summed size of all partitions to scan.
	ScanSizeBytes int64

	// Snapshot supplies the sampled averages.
	Snapshot types.StatsSnapshot

	// HasFilter reports whether the scan carries a filter predicate.
	HasFilter bool

	// Columns are the requested columns; empty means all columns.
	Columns []string
}

// Estimate computes the scan statistics.
//
// The row count is ScanSizeBytes / AvgRowSizeBytes (integer division),
// halved when a filter is present. The disk cost is ScanSizeBytes scaled by
// the fraction of columns read, or ScanSizeBytes when all columns are read.
//
// Parameters:
//   - in: Scan size, stats snapshot, filter flag and requested columns
//
// Returns:
//   - types.ScanStats: Inexact statistics
func Estimate(in Input) types.ScanStats {
	avgRowSize := max(in.Snapshot.AvgRowSizeBytes, 1)
	colsPerRow := max(in.Snapshot.AvgColsPerRow, 1)

	selectivity := 1.0
	if in.HasFilter {
		selectivity = FilterSelectivity
	}
	rowCount := int64(float64(in.ScanSizeBytes/avgRowSize) * selectivity)

	diskCost := float64(in.ScanSizeBytes)
	if !AllColumns(in.Columns) {
		diskCost *= float64(len(in.Columns)) / float64(colsPerRow)
	}

	return types.ScanStats{
		RowCount: rowCount,
		CPUCost:  CPUCost,
		DiskCost: diskCost,
		Exact:    false,
	}
}

// AllColumns reports whether a column list selects every column:
// either it is empty or it contains the "*" wildcard.
func AllColumns(columns []string) bool {
	if len(columns) == 0 {
		return true
	}
	for _, c := range columns {
		if c == "*" {
			return true
		}
	}

	return false
}

// Affinity scores endpoints by the number of partitions they host.
//
// Endpoints sharing an address are scored once. Results follow the order in
// which addresses first appear in endpoints; endpoints hosting no partitions
// are omitted.
//
// Parameters:
//   - endpoints: Candidate worker endpoints
//   - partitions: Partitions of the scan
//
// Returns:
//   - []types.EndpointAffinity: One entry per hosting endpoint address
func Affinity(endpoints []types.WorkerEndpoint, partitions []types.PartitionLocation) []types.EndpointAffinity {
	perHost := make(map[string]int, len(endpoints))
	for _, p := range partitions {
		perHost[p.Server.Host]++
	}

	seen := make(map[string]struct{}, len(endpoints))
	var out []types.EndpointAffinity
	for _, ep := range endpoints {
		if _, dup := seen[ep.Address]; dup {
			continue
		}
		seen[ep.Address] = struct{}{}

		if n := perHost[ep.Address]; n > 0 {
			out = append(out, types.EndpointAffinity{Endpoint: ep, Affinity: float64(n)})
		}
	}

	return out
}
