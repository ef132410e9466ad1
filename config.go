package scanplan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/scanplan/stats"
)

// Strategy names accepted by Config.Strategy.
const (
	StrategyLocalityAware = "locality_aware"
	StrategyRoundRobin    = "round_robin"
)

// KVBucketConfig configures NATS JetStream KV bucket names.
type KVBucketConfig struct {
	// CatalogBucket holds table descriptors and partition locations.
	CatalogBucket string `yaml:"catalogBucket"`

	// ClusterStatusBucket holds per-server partition load reports.
	ClusterStatusBucket string `yaml:"clusterStatusBucket"`

	// AssignmentBucket holds published slot assignments.
	AssignmentBucket string `yaml:"assignmentBucket"`

	// AssignmentPrefix is the key prefix of published slot assignments.
	AssignmentPrefix string `yaml:"assignmentPrefix"`
}

// Config is the configuration for planning a scan.
//
// All duration fields accept standard Go duration strings like "500ms", "10s".
type Config struct {
	// SampleRowCount is the maximum number of rows sampled to estimate row size.
	// Zero disables sampling; averages then stay at 1.
	// Default: 100
	SampleRowCount int `yaml:"sampleRowCount"`

	// SizeCalculatorEnabled builds per-partition sizes from cluster status.
	// When disabled, every partition is estimated as DefaultRowCount rows.
	// Default: true
	SizeCalculatorEnabled bool `yaml:"sizeCalculatorEnabled"`

	// OperationTimeout bounds each collaborator call made while planning
	// (catalog lookups, sampling, cluster status).
	// Default: 10 seconds
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// Strategy selects the slot assignment strategy when no strategy option is given.
	// One of "locality_aware" (default) or "round_robin".
	Strategy string `yaml:"strategy"`

	// KVBuckets controls NATS JetStream KV bucket configuration.
	KVBuckets KVBucketConfig `yaml:"kvBuckets"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		SampleRowCount:        stats.DefaultSampleRowCount,
		SizeCalculatorEnabled: true,
		OperationTimeout:      10 * time.Second,
		Strategy:              StrategyLocalityAware,
		KVBuckets: KVBucketConfig{
			CatalogBucket:       "scanplan-catalog",
			ClusterStatusBucket: "scanplan-cluster-status",
			AssignmentBucket:    "scanplan-assignment",
			AssignmentPrefix:    "assignment",
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// SampleRowCount and SizeCalculatorEnabled are left untouched because their
// zero values are meaningful. Use DefaultConfig or ParseConfig to get their defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.Strategy == "" {
		cfg.Strategy = defaults.Strategy
	}
	if cfg.KVBuckets.CatalogBucket == "" {
		cfg.KVBuckets.CatalogBucket = defaults.KVBuckets.CatalogBucket
	}
	if cfg.KVBuckets.ClusterStatusBucket == "" {
		cfg.KVBuckets.ClusterStatusBucket = defaults.KVBuckets.ClusterStatusBucket
	}
	if cfg.KVBuckets.AssignmentBucket == "" {
		cfg.KVBuckets.AssignmentBucket = defaults.KVBuckets.AssignmentBucket
	}
	if cfg.KVBuckets.AssignmentPrefix == "" {
		cfg.KVBuckets.AssignmentPrefix = defaults.KVBuckets.AssignmentPrefix
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - SampleRowCount >= 0
//   - OperationTimeout > 0
//   - Strategy is a known strategy name
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.SampleRowCount < 0 {
		return fmt.Errorf("%w: SampleRowCount must be >= 0, got %d", ErrInvalidConfig, cfg.SampleRowCount)
	}

	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("%w: OperationTimeout must be > 0, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	switch cfg.Strategy {
	case StrategyLocalityAware, StrategyRoundRobin:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, cfg.Strategy)
	}

	return nil
}

// ValidateWithWarnings logs warnings for non-recommended values.
//
// This is called after Validate() in NewGroupScan() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.SampleRowCount == 0 {
		logger.Warn("row sampling is disabled, row counts assume 1-byte rows",
			"sampleRowCount", cfg.SampleRowCount,
			"recommended", stats.DefaultSampleRowCount,
		)
	}

	if cfg.SampleRowCount > 10_000 {
		logger.Warn("SampleRowCount is very large, planning may be slow",
			"sampleRowCount", cfg.SampleRowCount,
			"recommended", stats.DefaultSampleRowCount,
		)
	}

	if cfg.OperationTimeout < 100*time.Millisecond {
		logger.Warn("OperationTimeout is very short, collaborator calls may time out",
			"operationTimeout", cfg.OperationTimeout,
			"recommended", "10s",
		)
	}
}

// statsConfig projects the estimator settings.
func (cfg *Config) statsConfig() stats.Config {
	return stats.Config{
		SampleRowCount:        cfg.SampleRowCount,
		SizeCalculatorEnabled: cfg.SizeCalculatorEnabled,
		OperationTimeout:      cfg.OperationTimeout,
	}
}

// ParseConfig parses a YAML configuration document.
//
// The document is decoded over DefaultConfig, so absent keys keep their
// defaults while explicit zero values (e.g., sampleRowCount: 0) are kept.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Config: Parsed configuration with defaults applied
//   - error: Parse or validation error
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	SetDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfig loads configuration from a YAML file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Error if file cannot be read, parsed or validated
//
// Example:
//
//	cfg, err := scanplan.LoadConfig("scanplan.yaml")
//	if err != nil { /* handle */ }
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// TestConfig returns a configuration suited to fast tests.
//
// Sampling is limited to 10 rows and collaborator calls time out after one
// second. Use DefaultConfig() for production.
//
// Returns:
//   - Config: Configuration for tests
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRowCount = 10
	cfg.OperationTimeout = 1 * time.Second

	return cfg
}
