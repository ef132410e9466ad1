package scanplan

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arloliu/scanplan/internal/logging"
	"github.com/arloliu/scanplan/internal/metrics"
)

// NewSlogLogger adapts a *slog.Logger to Logger.
//
// Parameters:
//   - logger: slog logger; nil uses slog.Default()
//
// Returns:
//   - Logger: Adapter forwarding key-value pairs as slog attributes
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return logging.NewSlog(logger)
}

// NewZapLogger adapts a *zap.Logger to Logger.
//
// Parameters:
//   - logger: zap logger; nil uses zap.NewNop()
//
// Returns:
//   - Logger: Adapter backed by the logger's SugaredLogger
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return logging.NewZap(logger)
}

// NewPrometheusMetrics creates a MetricsCollector backed by Prometheus.
//
// Collectors are registered on first use.
//
// Parameters:
//   - reg: Registerer to register with; nil uses prometheus.DefaultRegisterer
//   - namespace: Metric namespace; empty uses "scanplan"
//
// Returns:
//   - MetricsCollector: Prometheus collector
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	gs, err := scanplan.NewGroupScan(ctx, &cfg, catalog, status, sampler, spec, nil,
//	    scanplan.WithMetrics(scanplan.NewPrometheusMetrics(reg, "query")))
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}
