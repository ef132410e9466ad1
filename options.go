package scanplan

// Option configures a GroupScan with optional dependencies.
type Option func(*groupScanOptions)

// groupScanOptions holds optional GroupScan configuration.
type groupScanOptions struct {
	logger   Logger
	metrics  MetricsCollector
	strategy SlotStrategy
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (see NewSlogLogger and NewZapLogger)
//
// Returns:
//   - Option: Functional option for NewGroupScan
//
// Example:
//
//	logger := scanplan.NewSlogLogger(slog.Default())
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil, scanplan.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *groupScanOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewGroupScan
//
// Example:
//
//	metrics := scanplan.NewPrometheusMetrics(prometheus.DefaultRegisterer, "scanplan")
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil, scanplan.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *groupScanOptions) {
		o.metrics = metrics
	}
}

// WithStrategy sets the slot assignment strategy, overriding Config.Strategy.
//
// Parameters:
//   - strategy: SlotStrategy implementation
//
// Returns:
//   - Option: Functional option for NewGroupScan
//
// Example:
//
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil,
//	    scanplan.WithStrategy(strategy.NewRoundRobin()))
func WithStrategy(strategy SlotStrategy) Option {
	return func(o *groupScanOptions) {
		o.strategy = strategy
	}
}
