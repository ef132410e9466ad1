package types

import (
	"bytes"
	"fmt"
	"strconv"
)

// Partition represents one contiguous key range of a table.
//
// A partition covers the half-open byte range [StartKey, StopKey). An empty
// StartKey means the range starts at the beginning of the key space and an
// empty StopKey means it extends to the end of the key space.
//
// Partitions are immutable values taken from a single discovery snapshot.
// They may become stale after discovery; the plan never refreshes them.
type Partition struct {
	// ID uniquely identifies the partition within a table snapshot
	// (the region or tablet name of the underlying store).
	ID string `json:"id" yaml:"id"`

	// Table is the name of the owning table.
	Table string `json:"table" yaml:"table"`

	// StartKey is the inclusive lower bound of the range.
	StartKey []byte `json:"startKey,omitempty" yaml:"startKey,omitempty"`

	// StopKey is the exclusive upper bound of the range.
	StopKey []byte `json:"stopKey,omitempty" yaml:"stopKey,omitempty"`
}

// ContainsRow reports whether row falls inside [StartKey, StopKey).
//
// Parameters:
//   - row: Row key to test
//
// Returns:
//   - bool: true if the partition range contains the row key
func (p Partition) ContainsRow(row []byte) bool {
	if bytes.Compare(row, p.StartKey) < 0 {
		return false
	}

	return len(p.StopKey) == 0 || bytes.Compare(row, p.StopKey) < 0
}

// Compare orders partitions by start key, breaking ties by ID.
//
// Returns:
//   - int: -1 if p < q, 0 if equal, +1 if p > q
func (p Partition) Compare(q Partition) int {
	if c := bytes.Compare(p.StartKey, q.StartKey); c != 0 {
		return c
	}
	switch {
	case p.ID < q.ID:
		return -1
	case p.ID > q.ID:
		return 1
	default:
		return 0
	}
}

// ServerIdentity identifies the storage server hosting a partition.
type ServerIdentity struct {
	// Host is the hostname of the server; it is matched against worker endpoint addresses.
	Host string `json:"host" yaml:"host"`

	// Port is the server's RPC port.
	Port int `json:"port" yaml:"port"`

	// StartCode distinguishes restarts of a server on the same host and port.
	StartCode int64 `json:"startCode,omitempty" yaml:"startCode,omitempty"`
}

// String returns the host:port form of the server identity.
func (s ServerIdentity) String() string {
	if s.Port == 0 {
		return s.Host
	}

	return s.Host + ":" + strconv.Itoa(s.Port)
}

// PartitionLocation pairs a partition with the server that owns it.
type PartitionLocation struct {
	Partition

	// Server is the owning server at discovery time.
	Server ServerIdentity `json:"server" yaml:"server"`
}

// TableDescriptor describes the schema-level facts the planner validates against.
type TableDescriptor struct {
	// Name is the table name.
	Name string `json:"name" yaml:"name"`

	// Families lists the column families defined on the table.
	Families []string `json:"families" yaml:"families"`
}

// HasFamily reports whether the table defines the given column family.
func (d TableDescriptor) HasFamily(family string) bool {
	for _, f := range d.Families {
		if f == family {
			return true
		}
	}

	return false
}

// WorkerEndpoint is the address of one parallel execution slot's host machine.
//
// Several endpoints may share an address when a host runs more than one slot.
type WorkerEndpoint struct {
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// String returns the address:port form of the endpoint.
func (e WorkerEndpoint) String() string {
	if e.Port == 0 {
		return e.Address
	}

	return fmt.Sprintf("%s:%d", e.Address, e.Port)
}
