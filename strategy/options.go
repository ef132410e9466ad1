package strategy

import (
	"github.com/arloliu/scanplan/internal/logger"
	"github.com/arloliu/scanplan/internal/metrics"
	"github.com/arloliu/scanplan/types"
)

// Option configures a built-in strategy.
type Option func(*options)

type options struct {
	logger  types.Logger
	metrics types.PlannerMetrics
}

func applyOptions(opts []Option) options {
	o := options{
		logger:  logger.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger sets the logger used for phase timing and diagnostics.
//
// Parameters:
//   - l: Logger implementation (nil keeps the no-op logger)
//
// Returns:
//   - Option: Configuration option
func WithLogger(l types.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the planner metrics collector.
//
// Parameters:
//   - m: Metrics collector (nil keeps the no-op collector)
//
// Returns:
//   - Option: Configuration option
func WithMetrics(m types.PlannerMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
