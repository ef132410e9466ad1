package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/scanplan"
	"github.com/arloliu/scanplan/internal/assignment"
	"github.com/arloliu/scanplan/internal/kvutil"
	"github.com/arloliu/scanplan/internal/metrics"
	"github.com/arloliu/scanplan/source"
)

type planFlags struct {
	topologyPath string
	table        string
	startRow     string
	stopRow      string
	filter       string
	endpoints    string
	columns      string
	publish      bool
}

func newPlanCommand(g *globalFlags) *cobra.Command {
	var f planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a scan and print its statistics and slot assignment",
		Long: `
Plan a range scan of one table across the given worker endpoints.

Partitions come from --topology when set, otherwise from the KV catalog
reached through --nats-url. Row sampling is only available with a topology
file. With --publish the assignment is written to the assignment bucket
under the plan's fingerprint.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return runPlan(cmd.Context(), e, g.natsURL, f, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.StringVar(&f.topologyPath, "topology", "", "Path to a YAML topology file")
	fs.StringVar(&f.table, "table", "", "Table to scan (required)")
	fs.StringVar(&f.startRow, "start-row", "", "Inclusive start row key")
	fs.StringVar(&f.stopRow, "stop-row", "", "Exclusive stop row key")
	fs.StringVar(&f.filter, "filter", "", "Serialized filter predicate pushed to the store")
	fs.StringVar(&f.endpoints, "endpoints", "", "Comma-separated worker endpoints, host or host:port, one per slot (required)")
	fs.StringVar(&f.columns, "columns", "", "Comma-separated projected columns (default all)")
	fs.BoolVar(&f.publish, "publish", false, "Publish the assignment to the NATS KV assignment bucket")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("endpoints")

	return cmd
}

func runPlan(ctx context.Context, e *env, natsURL string, f planFlags, out io.Writer) error {
	endpoints, err := parseEndpoints(f.endpoints)
	if err != nil {
		return err
	}

	var js jetstream.JetStream
	if natsURL != "" {
		var nc *nats.Conn
		nc, js, err = connect(natsURL, e.logger)
		if err != nil {
			return err
		}
		defer nc.Close()
	} else if f.publish || f.topologyPath == "" {
		return fmt.Errorf("%w: no topology file given or publishing requested", errNATSRequired)
	}

	collectors, err := openCollaborators(ctx, e, js, f.topologyPath)
	if err != nil {
		return err
	}

	spec := scanplan.ScanSpec{
		Table:    f.table,
		StartRow: bytesOrNil(f.startRow),
		StopRow:  bytesOrNil(f.stopRow),
		Filter:   bytesOrNil(f.filter),
	}
	m := metrics.NewNop()
	gs, err := scanplan.NewGroupScan(ctx, e.cfg, collectors.catalog, collectors.status, collectors.sampler,
		spec, splitList(f.columns),
		scanplan.WithLogger(e.logger),
		scanplan.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	slots, err := gs.AssignSlots(endpoints)
	if err != nil {
		return err
	}

	report := newPlanReport(gs, endpoints, slots)

	if f.publish {
		kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
			kvutil.BucketConfig(e.cfg.KVBuckets.AssignmentBucket, "scanplan slot assignments"), kvutil.DefaultMaxRetries)
		if err != nil {
			return err
		}
		pub := assignment.NewPublisher(kv, e.cfg.KVBuckets.AssignmentPrefix, e.logger, m)
		version, err := pub.Publish(ctx, gs.PlanKey(), slots)
		if err != nil {
			return err
		}
		report.Published = &publishView{
			Bucket:  e.cfg.KVBuckets.AssignmentBucket,
			PlanKey: gs.PlanKey(),
			Version: version,
		}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}

	return enc.Close()
}

type collaborators struct {
	catalog scanplan.PartitionCatalog
	status  scanplan.ClusterStatusProvider
	sampler scanplan.RowSampler
}

func openCollaborators(ctx context.Context, e *env, js jetstream.JetStream, topologyPath string) (collaborators, error) {
	if topologyPath != "" {
		topo, err := source.LoadTopology(topologyPath)
		if err != nil {
			return collaborators{}, err
		}

		return collaborators{catalog: topo.Catalog(), status: topo.ClusterStatus(), sampler: topo.Sampler()}, nil
	}

	if js == nil {
		return collaborators{}, errNATSRequired
	}

	catalogKV, err := kvutil.OpenBucket(ctx, js, e.cfg.KVBuckets.CatalogBucket)
	if err != nil {
		return collaborators{}, err
	}
	e.logger.Info("planning from KV catalog, row sampling disabled",
		"catalogBucket", e.cfg.KVBuckets.CatalogBucket,
		"clusterStatusBucket", e.cfg.KVBuckets.ClusterStatusBucket,
	)

	c := collaborators{catalog: source.NewKVCatalog(catalogKV, source.WithKVLogger(e.logger))}

	// Without cluster status the plan still runs on default partition sizes.
	statusKV, err := kvutil.OpenBucket(ctx, js, e.cfg.KVBuckets.ClusterStatusBucket)
	if err != nil {
		e.logger.Warn("cluster status unavailable, using default partition sizes",
			"clusterStatusBucket", e.cfg.KVBuckets.ClusterStatusBucket,
			"error", err,
		)

		return c, nil
	}
	c.status = source.NewKVClusterStatus(statusKV, source.WithKVLogger(e.logger))

	return c, nil
}

// parseEndpoints parses "host[:port],..." into one endpoint per slot.
func parseEndpoints(s string) ([]scanplan.WorkerEndpoint, error) {
	items := splitList(s)
	if len(items) == 0 {
		return nil, scanplan.ErrNoEndpoints
	}

	out := make([]scanplan.WorkerEndpoint, 0, len(items))
	for _, item := range items {
		if !strings.Contains(item, ":") {
			out = append(out, scanplan.WorkerEndpoint{Address: item})
			continue
		}

		host, portStr, err := net.SplitHostPort(item)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", item, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid endpoint %q: bad port", item)
		}
		if host == "" {
			return nil, fmt.Errorf("invalid endpoint %q: empty host", item)
		}
		out = append(out, scanplan.WorkerEndpoint{Address: host, Port: port})
	}

	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func bytesOrNil(s string) []byte {
	if s == "" {
		return nil
	}

	return []byte(s)
}
