package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/scanplan/types"
)

// Topology is a file-friendly description of tables, their partitions and
// sample rows. Row keys and values are plain strings.
type Topology struct {
	Tables []TopologyTable `yaml:"tables"`
}

// TopologyTable describes one table.
type TopologyTable struct {
	Name       string              `yaml:"name"`
	Families   []string            `yaml:"families"`
	Partitions []TopologyPartition `yaml:"partitions"`
	SampleRows []TopologyRow       `yaml:"sampleRows,omitempty"`
}

// TopologyPartition describes one partition, its server and its storage load.
type TopologyPartition struct {
	ID          string               `yaml:"id"`
	StartKey    string               `yaml:"startKey,omitempty"`
	StopKey     string               `yaml:"stopKey,omitempty"`
	Server      types.ServerIdentity `yaml:"server"`
	MemStoreMB  int64                `yaml:"memStoreMB,omitempty"`
	StoreFileMB int64                `yaml:"storeFileMB,omitempty"`
}

// TopologyRow is one sample row.
type TopologyRow struct {
	Key   string         `yaml:"key"`
	Cells []TopologyCell `yaml:"cells"`
}

// TopologyCell is one sample cell.
type TopologyCell struct {
	Family    string `yaml:"family"`
	Qualifier string `yaml:"qualifier"`
	Value     string `yaml:"value"`
}

// LoadTopology reads and parses a topology file.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - *Topology: Parsed and validated topology
//   - error: Read, parse or validation error
//
// Example:
//
//	topo, err := source.LoadTopology("topology.yaml")
//	if err != nil { /* handle */ }
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, topo.Catalog(), topo.ClusterStatus(), topo.Sampler(), spec, nil)
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}

	return ParseTopology(data)
}

// ParseTopology parses a YAML topology document.
func ParseTopology(data []byte) (*Topology, error) {
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}

	if err := topo.Validate(); err != nil {
		return nil, err
	}

	return &topo, nil
}

// Validate checks that table names and partition IDs are present and unique.
func (t *Topology) Validate() error {
	tables := make(map[string]struct{}, len(t.Tables))
	for i, tbl := range t.Tables {
		if tbl.Name == "" {
			return fmt.Errorf("%w: table %d has no name", types.ErrInvalidConfig, i)
		}
		if _, dup := tables[tbl.Name]; dup {
			return fmt.Errorf("%w: duplicate table %s", types.ErrInvalidConfig, tbl.Name)
		}
		tables[tbl.Name] = struct{}{}

		ids := make(map[string]struct{}, len(tbl.Partitions))
		for j, p := range tbl.Partitions {
			if p.ID == "" {
				return fmt.Errorf("%w: table %s partition %d has no id", types.ErrInvalidConfig, tbl.Name, j)
			}
			if _, dup := ids[p.ID]; dup {
				return fmt.Errorf("%w: table %s has duplicate partition %s", types.ErrInvalidConfig, tbl.Name, p.ID)
			}
			ids[p.ID] = struct{}{}
			if p.Server.Host == "" {
				return fmt.Errorf("%w: partition %s has no server host", types.ErrInvalidConfig, p.ID)
			}
		}
	}

	return nil
}

// Descriptors returns the table descriptors and partition locations.
func (t *Topology) Descriptors() map[string]TableLayout {
	out := make(map[string]TableLayout, len(t.Tables))
	for _, tbl := range t.Tables {
		layout := TableLayout{
			Descriptor: types.TableDescriptor{Name: tbl.Name, Families: tbl.Families},
			Partitions: make([]types.PartitionLocation, 0, len(tbl.Partitions)),
		}
		for _, p := range tbl.Partitions {
			layout.Partitions = append(layout.Partitions, types.PartitionLocation{
				Partition: types.Partition{
					ID:       p.ID,
					Table:    tbl.Name,
					StartKey: bytesOrNil(p.StartKey),
					StopKey:  bytesOrNil(p.StopKey),
				},
				Server: p.Server,
			})
		}
		out[tbl.Name] = layout
	}

	return out
}

// TableLayout pairs a table descriptor with its partitions.
type TableLayout struct {
	Descriptor types.TableDescriptor
	Partitions []types.PartitionLocation
}

// Catalog builds a static catalog holding every table.
func (t *Topology) Catalog() *StaticCatalog {
	c := NewStaticCatalog()
	for _, layout := range t.Descriptors() {
		c.PutTable(layout.Descriptor, layout.Partitions)
	}

	return c
}

// Status returns the cluster status described by the partition loads.
// Servers are keyed by their host:port form.
func (t *Topology) Status() types.ClusterStatus {
	status := types.ClusterStatus{Servers: make(map[string]types.ServerLoad)}
	for _, tbl := range t.Tables {
		for _, p := range tbl.Partitions {
			name := p.Server.String()
			load, ok := status.Servers[name]
			if !ok {
				load = types.ServerLoad{Server: p.Server, Partitions: make(map[string]types.PartitionLoad)}
			}
			load.Partitions[p.ID] = types.PartitionLoad{
				PartitionID: p.ID,
				Table:       tbl.Name,
				MemStoreMB:  p.MemStoreMB,
				StoreFileMB: p.StoreFileMB,
			}
			status.Servers[name] = load
		}
	}

	return status
}

// ClusterStatus builds a static cluster status provider from the partition loads.
func (t *Topology) ClusterStatus() *StaticClusterStatus {
	return NewStaticClusterStatus(t.Status())
}

// Sampler builds a static sampler holding every table's sample rows.
func (t *Topology) Sampler() *StaticSampler {
	s := NewStaticSampler()
	for _, tbl := range t.Tables {
		rows := make([]types.Row, 0, len(tbl.SampleRows))
		for _, r := range tbl.SampleRows {
			row := types.Row{Key: []byte(r.Key), Cells: make([]types.Cell, 0, len(r.Cells))}
			for _, c := range r.Cells {
				row.Cells = append(row.Cells, types.Cell{
					Family:    []byte(c.Family),
					Qualifier: []byte(c.Qualifier),
					Value:     []byte(c.Value),
				})
			}
			rows = append(rows, row)
		}
		s.PutRows(tbl.Name, rows)
	}

	return s
}

func bytesOrNil(s string) []byte {
	if s == "" {
		return nil
	}

	return []byte(s)
}
