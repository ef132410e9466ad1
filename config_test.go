package scanplan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/scanplan/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 100, cfg.SampleRowCount)
	require.True(t, cfg.SizeCalculatorEnabled)
	require.Equal(t, 10*time.Second, cfg.OperationTimeout)
	require.Equal(t, StrategyLocalityAware, cfg.Strategy)
	require.Equal(t, "scanplan-catalog", cfg.KVBuckets.CatalogBucket)
	require.Equal(t, "scanplan-cluster-status", cfg.KVBuckets.ClusterStatusBucket)
	require.Equal(t, "scanplan-assignment", cfg.KVBuckets.AssignmentBucket)
	require.Equal(t, "assignment", cfg.KVBuckets.AssignmentPrefix)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, 10*time.Second, cfg.OperationTimeout)
		require.Equal(t, StrategyLocalityAware, cfg.Strategy)
		require.Equal(t, "scanplan-assignment", cfg.KVBuckets.AssignmentBucket)
	})

	t.Run("never overrides sampling switches", func(t *testing.T) {
		cfg := Config{SampleRowCount: 0, SizeCalculatorEnabled: false}
		SetDefaults(&cfg)

		require.Zero(t, cfg.SampleRowCount)
		require.False(t, cfg.SizeCalculatorEnabled)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			SampleRowCount:   5,
			OperationTimeout: 3 * time.Second,
			Strategy:         StrategyRoundRobin,
			KVBuckets: KVBucketConfig{
				CatalogBucket:       "c",
				ClusterStatusBucket: "s",
				AssignmentBucket:    "a",
				AssignmentPrefix:    "p",
			},
		}
		SetDefaults(&cfg)

		require.Equal(t, 5, cfg.SampleRowCount)
		require.Equal(t, 3*time.Second, cfg.OperationTimeout)
		require.Equal(t, StrategyRoundRobin, cfg.Strategy)
		require.Equal(t, KVBucketConfig{CatalogBucket: "c", ClusterStatusBucket: "s", AssignmentBucket: "a", AssignmentPrefix: "p"}, cfg.KVBuckets)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("negative sample count", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SampleRowCount = -1
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OperationTimeout = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategy = "consistent_hash"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("sampling disabled is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SampleRowCount = 0
		require.NoError(t, cfg.Validate())
		cfg.ValidateWithWarnings(logger.NewTest(t))
	})
}

func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
sampleRowCount: 250
sizeCalculatorEnabled: false
operationTimeout: 1500ms
strategy: round_robin
kvBuckets:
  catalogBucket: cat
  clusterStatusBucket: status
  assignmentBucket: assign
  assignmentPrefix: plans
`

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(yamlConfig), &cfg))

	require.Equal(t, 250, cfg.SampleRowCount)
	require.False(t, cfg.SizeCalculatorEnabled)
	require.Equal(t, 1500*time.Millisecond, cfg.OperationTimeout)
	require.Equal(t, StrategyRoundRobin, cfg.Strategy)
	require.Equal(t, "cat", cfg.KVBuckets.CatalogBucket)
	require.Equal(t, "plans", cfg.KVBuckets.AssignmentPrefix)
}

func TestParseConfig(t *testing.T) {
	t.Run("partial document keeps defaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("operationTimeout: 2s\n"))
		require.NoError(t, err)
		require.Equal(t, 2*time.Second, cfg.OperationTimeout)
		require.Equal(t, 100, cfg.SampleRowCount)
		require.True(t, cfg.SizeCalculatorEnabled)
		require.Equal(t, "scanplan-catalog", cfg.KVBuckets.CatalogBucket)
	})

	t.Run("explicit zero sample count is kept", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("sampleRowCount: 0\n"))
		require.NoError(t, err)
		require.Zero(t, cfg.SampleRowCount)
	})

	t.Run("empty document is the default config", func(t *testing.T) {
		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), *cfg)
	})

	t.Run("invalid values fail", func(t *testing.T) {
		_, err := ParseConfig([]byte("sampleRowCount: -5\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		_, err := ParseConfig([]byte("sampleRowCount: [\n"))
		require.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampleRowCount: 20\nstrategy: round_robin\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.SampleRowCount)
	require.Equal(t, StrategyRoundRobin, cfg.Strategy)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.Equal(t, 10, cfg.SampleRowCount)
	require.Equal(t, time.Second, cfg.OperationTimeout)
	require.NoError(t, cfg.Validate())
}
