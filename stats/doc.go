// Package stats estimates the size of a range scan.
//
// An Estimator combines two inputs gathered once at construction:
//
//   - A bounded row sample giving the average row size and cells per row
//   - Per-partition storage footprints from the cluster status (the size map)
//
// Both inputs are optional. Without a sample the averages default to 1; without
// a size map every partition is estimated as DefaultRowCount rows of the
// average size. Cluster status failures never fail construction.
//
// An Estimator is immutable after NewEstimator returns and is safe for
// concurrent use.
package stats
