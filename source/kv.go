package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/scanplan/internal/kvutil"
	"github.com/arloliu/scanplan/internal/logger"
	"github.com/arloliu/scanplan/internal/natsutil"
	"github.com/arloliu/scanplan/types"
)

// KV key layout:
//
//	tables.<table>                  -> types.TableDescriptor
//	partitions.<table>.<partition>  -> types.PartitionLocation
//	servers.<host>.<port>           -> types.ServerLoad
const (
	tablesPrefix     = "tables."
	partitionsPrefix = "partitions."
	serversPrefix    = "servers."
)

// KVOption configures the KV-backed sources.
type KVOption func(*kvOptions)

type kvOptions struct {
	logger types.Logger
}

// WithKVLogger sets the logger of a KV-backed source.
func WithKVLogger(l types.Logger) KVOption {
	return func(o *kvOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyKVOptions(opts []KVOption) kvOptions {
	o := kvOptions{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// KVCatalog implements a partition catalog stored in a NATS JetStream KV bucket.
type KVCatalog struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

var _ types.PartitionCatalog = (*KVCatalog)(nil)

// NewKVCatalog creates a catalog backed by kv.
//
// Parameters:
//   - kv: Bucket holding table descriptors and partition locations
//   - opts: Optional configuration (WithKVLogger)
//
// Returns:
//   - *KVCatalog: Catalog reading and writing kv
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	kv, _ := kvutil.EnsureKVBucketWithRetry(ctx, js, kvutil.BucketConfig("scanplan-catalog", "catalog"), 3)
//	catalog := source.NewKVCatalog(kv)
func NewKVCatalog(kv jetstream.KeyValue, opts ...KVOption) *KVCatalog {
	o := applyKVOptions(opts)

	return &KVCatalog{kv: kv, logger: o.logger}
}

func tableKey(table string) string { return tablesPrefix + table }

func partitionKey(table, id string) string { return partitionsPrefix + table + "." + id }

// tablePartitionsFilter matches the partition keys of table only. Table names
// may contain dots, so a plain prefix would also match "<table>.<suffix>" tables.
func tablePartitionsFilter(table string) string { return partitionsPrefix + table + ".*" }

// validateNames rejects names that cannot be stored under the KV key layout.
// Table names may span several tokens; partition IDs must be a single token.
func validateNames(desc types.TableDescriptor, partitions []types.PartitionLocation) error {
	if desc.Name == "" || strings.ContainsAny(desc.Name, " *>") ||
		strings.HasPrefix(desc.Name, ".") || strings.HasSuffix(desc.Name, ".") || strings.Contains(desc.Name, "..") {
		return fmt.Errorf("%w: invalid table name %q", types.ErrInvalidConfig, desc.Name)
	}
	for _, p := range partitions {
		if p.ID == "" || strings.ContainsAny(p.ID, ". *>") {
			return fmt.Errorf("%w: invalid partition id %q in table %s", types.ErrInvalidConfig, p.ID, desc.Name)
		}
	}

	return nil
}

// PutTable writes a table descriptor and its partitions.
//
// Partitions previously stored for the table but absent from partitions are
// removed. Every partition is stored with its Table set to desc.Name.
//
// Returns:
//   - error: Wrapped ErrInvalidConfig for a table name or partition ID the key
//     layout cannot hold, or the first KV failure
func (c *KVCatalog) PutTable(ctx context.Context, desc types.TableDescriptor, partitions []types.PartitionLocation) error {
	if err := validateNames(desc, partitions); err != nil {
		return err
	}

	if _, err := kvutil.PutJSON(ctx, c.kv, tableKey(desc.Name), desc); err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		p.Table = desc.Name
		key := partitionKey(desc.Name, p.ID)
		keep[key] = struct{}{}
		if _, err := kvutil.PutJSON(ctx, c.kv, key, p); err != nil {
			return err
		}
	}

	existing, err := kvutil.KeysMatching(ctx, c.kv, tablePartitionsFilter(desc.Name))
	if err != nil {
		return err
	}
	for _, key := range existing {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := c.kv.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to delete stale partition", "key", key, "error", err)
		}
	}

	c.logger.Debug("stored table", "table", desc.Name, "partitions", len(partitions))

	return nil
}

// DescribeTable reads the table descriptor.
//
// Returns:
//   - types.TableDescriptor: Stored descriptor
//   - error: Wrapped ErrTableNotFound when the key is absent, ErrCatalogUnavailable otherwise
func (c *KVCatalog) DescribeTable(ctx context.Context, table string) (types.TableDescriptor, error) {
	var desc types.TableDescriptor
	if err := kvutil.GetJSON(ctx, c.kv, tableKey(table), &desc); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return types.TableDescriptor{}, fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
		}

		return types.TableDescriptor{}, c.unavailable("describe table", table, err)
	}

	return desc, nil
}

// ListPartitions reads every partition of spec.Table ordered by start key.
//
// Returns:
//   - []types.PartitionLocation: Stored partitions
//   - error: Wrapped ErrTableNotFound or ErrCatalogUnavailable
func (c *KVCatalog) ListPartitions(ctx context.Context, spec types.ScanSpec) ([]types.PartitionLocation, error) {
	if _, err := c.DescribeTable(ctx, spec.Table); err != nil {
		return nil, err
	}

	keys, err := kvutil.KeysMatching(ctx, c.kv, tablePartitionsFilter(spec.Table))
	if err != nil {
		return nil, c.unavailable("list partitions", spec.Table, err)
	}

	out := make([]types.PartitionLocation, 0, len(keys))
	for _, key := range keys {
		var loc types.PartitionLocation
		if err := kvutil.GetJSON(ctx, c.kv, key, &loc); err != nil {
			// A partition deleted between listing and reading is skipped.
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, c.unavailable("read partition", spec.Table, err)
		}
		if loc.Table != spec.Table {
			c.logger.Warn("skipping partition of another table", "key", key, "table", loc.Table)
			continue
		}
		out = append(out, loc)
	}

	slices.SortStableFunc(out, func(a, b types.PartitionLocation) int {
		return a.Compare(b.Partition)
	})

	return out, nil
}

// unavailable wraps a read failure in ErrCatalogUnavailable, logging
// unreachable servers and undecodable entries differently.
func (c *KVCatalog) unavailable(op, table string, err error) error {
	if natsutil.IsConnectivityError(err) {
		c.logger.Warn("catalog unreachable", "op", op, "table", table, "error", err)
	} else {
		c.logger.Error("catalog read failed", "op", op, "table", table, "error", err)
	}

	return fmt.Errorf("%w: %s %s: %w", types.ErrCatalogUnavailable, op, table, err)
}

// KVClusterStatus implements a cluster status provider stored in a NATS JetStream KV bucket.
type KVClusterStatus struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

var _ types.ClusterStatusProvider = (*KVClusterStatus)(nil)

// NewKVClusterStatus creates a cluster status provider backed by kv.
func NewKVClusterStatus(kv jetstream.KeyValue, opts ...KVOption) *KVClusterStatus {
	o := applyKVOptions(opts)

	return &KVClusterStatus{kv: kv, logger: o.logger}
}

func serverKey(s types.ServerIdentity) string {
	return fmt.Sprintf("%s%s.%d", serversPrefix, s.Host, s.Port)
}

// PutServerLoad writes the load report of one server.
func (s *KVClusterStatus) PutServerLoad(ctx context.Context, load types.ServerLoad) error {
	_, err := kvutil.PutJSON(ctx, s.kv, serverKey(load.Server), load)

	return err
}

// CurrentLoad assembles the cluster status from every stored server load.
//
// Servers are keyed by their host:port form. Any read failure fails the whole
// call with a wrapped ErrClusterStatusUnavailable.
func (s *KVClusterStatus) CurrentLoad(ctx context.Context) (types.ClusterStatus, error) {
	keys, err := kvutil.KeysWithPrefix(ctx, s.kv, serversPrefix)
	if err != nil {
		return types.ClusterStatus{}, fmt.Errorf("%w: %w", types.ErrClusterStatusUnavailable, err)
	}

	status := types.ClusterStatus{Servers: make(map[string]types.ServerLoad, len(keys))}
	for _, key := range keys {
		var load types.ServerLoad
		if err := kvutil.GetJSON(ctx, s.kv, key, &load); err != nil {
			return types.ClusterStatus{}, fmt.Errorf("%w: %w", types.ErrClusterStatusUnavailable, err)
		}
		status.Servers[load.Server.String()] = load
	}

	s.logger.Debug("read cluster status", "servers", len(status.Servers))

	return status, nil
}

// PublishTopology writes every table and server load of topo to the KV sources.
//
// Parameters:
//   - ctx: Context for cancellation
//   - topo: Topology to publish
//   - catalog: Destination catalog
//   - status: Destination cluster status (nil skips loads)
//
// Returns:
//   - error: First write failure
func PublishTopology(ctx context.Context, topo *Topology, catalog *KVCatalog, status *KVClusterStatus) error {
	layouts := topo.Descriptors()
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		l := layouts[name]
		if err := catalog.PutTable(ctx, l.Descriptor, l.Partitions); err != nil {
			return fmt.Errorf("failed to publish table %s: %w", name, err)
		}
	}

	if status == nil {
		return nil
	}

	for name, load := range topo.Status().Servers {
		if err := status.PutServerLoad(ctx, load); err != nil {
			return fmt.Errorf("failed to publish load of %s: %w", name, err)
		}
	}

	return nil
}
