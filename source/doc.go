// Package source provides built-in collaborator implementations.
//
// Planning needs three collaborators: a partition catalog, a cluster status
// provider and a row sampler. The package includes:
//
//   - StaticCatalog, StaticClusterStatus, StaticSampler: in-memory values for
//     tests, tools and embedding
//   - Topology: a YAML description of tables, partitions, loads and sample
//     rows that builds the static collaborators
//   - KVCatalog, KVClusterStatus: topology published to NATS JetStream KV
//
// Custom collaborators can be implemented by satisfying the interfaces in the
// types package.
package source
