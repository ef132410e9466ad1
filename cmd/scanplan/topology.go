package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/arloliu/scanplan/internal/kvutil"
	"github.com/arloliu/scanplan/source"
)

func newTopologyCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Manage the topology published to NATS JetStream KV",
	}

	var topologyPath string
	push := &cobra.Command{
		Use:   "push",
		Short: "Publish a topology file to the catalog and cluster status buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			nc, js, err := connect(g.natsURL, e.logger)
			if err != nil {
				return err
			}
			defer nc.Close()

			return runTopologyPush(cmd.Context(), e, js, topologyPath, cmd.OutOrStdout())
		},
	}
	push.Flags().StringVar(&topologyPath, "topology", "", "Path to a YAML topology file (required)")
	_ = push.MarkFlagRequired("topology")

	cmd.AddCommand(push)

	return cmd
}

func runTopologyPush(ctx context.Context, e *env, js jetstream.JetStream, topologyPath string, out io.Writer) error {
	topo, err := source.LoadTopology(topologyPath)
	if err != nil {
		return err
	}

	buckets := e.cfg.KVBuckets
	catalogKV, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
		kvutil.BucketConfig(buckets.CatalogBucket, "scanplan table catalog"), kvutil.DefaultMaxRetries)
	if err != nil {
		return err
	}
	statusKV, err := kvutil.EnsureKVBucketWithRetry(ctx, js,
		kvutil.BucketConfig(buckets.ClusterStatusBucket, "scanplan cluster status"), kvutil.DefaultMaxRetries)
	if err != nil {
		return err
	}

	catalog := source.NewKVCatalog(catalogKV, source.WithKVLogger(e.logger))
	status := source.NewKVClusterStatus(statusKV, source.WithKVLogger(e.logger))
	if err := source.PublishTopology(ctx, topo, catalog, status); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "published %d tables to %s and %s\n",
		len(topo.Tables), buckets.CatalogBucket, buckets.ClusterStatusBucket)

	return err
}
