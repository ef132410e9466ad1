package types

import (
	"fmt"
	"strings"
)

// ScanSpec is the logical description of a requested scan.
//
// StartRow and StopRow are optional global bounds; empty means unbounded.
// Filter is an opaque serialized predicate pushed down to the store.
type ScanSpec struct {
	Table    string `json:"table" yaml:"table"`
	StartRow []byte `json:"startRow,omitempty" yaml:"startRow,omitempty"`
	StopRow  []byte `json:"stopRow,omitempty" yaml:"stopRow,omitempty"`
	Filter   []byte `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// HasFilter reports whether the scan carries a serialized filter predicate.
func (s ScanSpec) HasFilter() bool {
	return len(s.Filter) > 0
}

// String renders the spec for digests and logs.
func (s ScanSpec) String() string {
	return fmt.Sprintf("ScanSpec [table=%s, startRow=%q, stopRow=%q, filter=%t]",
		s.Table, s.StartRow, s.StopRow, s.HasFilter())
}

// SubScanSpec is the realization of a ScanSpec on a single partition.
type SubScanSpec struct {
	Table       string `json:"table" yaml:"table"`
	PartitionID string `json:"partitionId" yaml:"partitionId"`
	Server      string `json:"server" yaml:"server"`
	StartRow    []byte `json:"startRow,omitempty" yaml:"startRow,omitempty"`
	StopRow     []byte `json:"stopRow,omitempty" yaml:"stopRow,omitempty"`
	Filter      []byte `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// NewSubScanSpec derives the sub-scan of spec for one partition location.
//
// The effective start (stop) row is the spec's bound when it is set and the
// partition contains it, otherwise the partition's own bound.
//
// Parameters:
//   - spec: Scan being planned
//   - loc: Partition and its owning server
//
// Returns:
//   - SubScanSpec: Per-partition scan fragment targeting the owning server host
func NewSubScanSpec(spec ScanSpec, loc PartitionLocation) SubScanSpec {
	start := loc.StartKey
	if len(spec.StartRow) > 0 && loc.ContainsRow(spec.StartRow) {
		start = spec.StartRow
	}

	stop := loc.StopKey
	if len(spec.StopRow) > 0 && loc.ContainsRow(spec.StopRow) {
		stop = spec.StopRow
	}

	return SubScanSpec{
		Table:       spec.Table,
		PartitionID: loc.ID,
		Server:      loc.Server.Host,
		StartRow:    start,
		StopRow:     stop,
		Filter:      spec.Filter,
	}
}

// SlotAssignment maps each slot index to its ordered sub-scans.
type SlotAssignment struct {
	Slots [][]SubScanSpec `json:"slots" yaml:"slots"`
}

// Len returns the number of slots.
func (a SlotAssignment) Len() int {
	return len(a.Slots)
}

// Slot returns the sub-scans assigned to slot i, or nil when i is out of range.
func (a SlotAssignment) Slot(i int) []SubScanSpec {
	if i < 0 || i >= len(a.Slots) {
		return nil
	}

	return a.Slots[i]
}

// Counts returns the number of sub-scans per slot.
func (a SlotAssignment) Counts() []int {
	counts := make([]int, len(a.Slots))
	for i, s := range a.Slots {
		counts[i] = len(s)
	}

	return counts
}

// String renders a compact slot -> partition IDs listing.
func (a SlotAssignment) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, slot := range a.Slots {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: [", i)
		for j, sub := range slot {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(sub.PartitionID)
		}
		sb.WriteString("]")
	}
	sb.WriteString("}")

	return sb.String()
}
