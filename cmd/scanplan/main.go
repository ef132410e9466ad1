// Command scanplan plans range scans from a topology file or a NATS JetStream KV catalog.
//
// Usage:
//
//	scanplan plan --topology topology.yaml --table events --endpoints host-a,host-b
//	scanplan plan --nats-url nats://127.0.0.1:4222 --table events --endpoints host-a,host-b --publish
//	scanplan topology push --topology topology.yaml --nats-url nats://127.0.0.1:4222
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	natsURL    string
	logFormat  string
	debug      bool
}

func newRootCommand() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "scanplan",
		Short:         "Plan locality-aware range scans over partitioned tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pfs := root.PersistentFlags()
	pfs.SortFlags = false
	pfs.StringVar(&g.configPath, "config", "", "Path to a YAML configuration file")
	pfs.StringVar(&g.natsURL, "nats-url", "", "NATS server URL for the KV catalog and assignment publishing")
	pfs.StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")
	pfs.BoolVar(&g.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newPlanCommand(&g), newTopologyCommand(&g))

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
