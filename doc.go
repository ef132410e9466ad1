// Package scanplan plans distributed range scans over partitioned, range-sharded tables.
//
// Given a table's key-range partitions and the servers hosting them, scanplan
// estimates the cost of a scan from a bounded row sample and cluster size
// metadata, then distributes the partitions across a fixed number of
// parallel execution slots. Data-local placement is preferred and every
// slot receives between floor(P/N) and ceil(P/N) partitions.
//
// # Quick Start
//
//	import "github.com/arloliu/scanplan"
//
//	topo, err := source.LoadTopology("topology.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := scanplan.DefaultConfig()
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, topo.Catalog(), topo.ClusterStatus(), topo.Sampler(),
//	    scanplan.ScanSpec{Table: "events", StartRow: []byte("2024"), StopRow: []byte("2025")},
//	    []string{"d:payload"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats := gs.EstimateCost()
//	assignment, err := gs.AssignSlots([]scanplan.WorkerEndpoint{{Address: "host-a"}, {Address: "host-b"}})
//
// # Components
//
//   - stats.Estimator: average row size and columns per row from sampling,
//     per-partition byte sizes from cluster status
//   - strategy.LocalityAware: affinity pass, fill pass and heap-based rebalance
//   - cost: row count, disk cost and per-endpoint affinity
//   - source: static, YAML and NATS JetStream KV backed collaborators
//
// # Failure Handling
//
// Catalog failures abort planning with an error wrapping ErrCatalogUnavailable
// or ErrTableNotFound. Sampler and cluster status failures are logged and the
// estimates fall back to defaults: one byte per row, one column per row and
// stats.DefaultRowCount rows per partition.
//
// # Custom Strategies
//
// Any SlotStrategy can replace the default:
//
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil,
//	    scanplan.WithStrategy(strategy.NewRoundRobin()))
//
// A strategy must assign every partition exactly once and keep every slot's
// count within [floor(P/N), ceil(P/N)].
package scanplan
