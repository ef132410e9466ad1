// Package cost turns scan size estimates into optimizer statistics.
//
// Estimate derives an approximate row count and a column-proportional disk
// cost from the scan size and a stats snapshot. Affinity scores worker
// endpoints by how many of the scan's partitions they host.
package cost
