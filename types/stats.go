package types

// StatsSnapshot holds the cached estimates used for cost modeling.
type StatsSnapshot struct {
	// AvgRowSizeBytes is the average estimated row size from sampling (>= 1).
	AvgRowSizeBytes int64 `json:"avgRowSizeBytes" yaml:"avgRowSizeBytes"`

	// AvgColsPerRow is the average number of cells per sampled row (>= 1).
	AvgColsPerRow int64 `json:"avgColsPerRow" yaml:"avgColsPerRow"`

	// PartitionSizes maps partition ID to its size in bytes.
	// Nil when the size map was never built.
	PartitionSizes map[string]int64 `json:"partitionSizes,omitempty" yaml:"partitionSizes,omitempty"`
}

// ScanStats is the estimate handed to the optimizer.
type ScanStats struct {
	RowCount int64   `json:"rowCount" yaml:"rowCount"`
	CPUCost  float64 `json:"cpuCost" yaml:"cpuCost"`
	DiskCost float64 `json:"diskCost" yaml:"diskCost"`

	// Exact is always false: row counts are estimates.
	Exact bool `json:"exact" yaml:"exact"`
}

// EndpointAffinity scores how much of the scan's data is local to an endpoint.
type EndpointAffinity struct {
	Endpoint WorkerEndpoint `json:"endpoint" yaml:"endpoint"`
	Affinity float64        `json:"affinity" yaml:"affinity"`
}

// Cell is one stored value of a row as returned by the sampler.
type Cell struct {
	Family    []byte
	Qualifier []byte
	Value     []byte
	Timestamp int64
}

// cellFixedOverhead accounts for the timestamp (8 bytes) and type byte of a stored cell.
const cellFixedOverhead = 9

// EstimatedSize returns the approximate serialized size of the cell including row key.
//
// Parameters:
//   - rowKey: Key of the row the cell belongs to
//
// Returns:
//   - int64: Estimated size in bytes
func (c Cell) EstimatedSize(rowKey []byte) int64 {
	return int64(len(rowKey)+len(c.Family)+len(c.Qualifier)+len(c.Value)) + cellFixedOverhead
}

// Row is one sampled row.
type Row struct {
	Key   []byte
	Cells []Cell
}

// Size returns the summed estimated size of all cells in the row.
func (r Row) Size() int64 {
	var total int64
	for _, c := range r.Cells {
		total += c.EstimatedSize(r.Key)
	}

	return total
}

// ColumnCount returns the number of cells in the row.
func (r Row) ColumnCount() int {
	return len(r.Cells)
}

// PartitionLoad reports the storage footprint of one partition on a server.
type PartitionLoad struct {
	PartitionID string `json:"partitionId" yaml:"partitionId"`
	Table       string `json:"table" yaml:"table"`
	MemStoreMB  int64  `json:"memStoreMB" yaml:"memStoreMB"`
	StoreFileMB int64  `json:"storeFileMB" yaml:"storeFileMB"`
}

// ServerLoad reports the partitions hosted by one server.
type ServerLoad struct {
	Server     ServerIdentity           `json:"server" yaml:"server"`
	Partitions map[string]PartitionLoad `json:"partitions" yaml:"partitions"`
}

// ClusterStatus is a point-in-time view of per-server partition loads keyed by server name.
type ClusterStatus struct {
	Servers map[string]ServerLoad `json:"servers" yaml:"servers"`
}
