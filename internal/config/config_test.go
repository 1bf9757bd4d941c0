package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 100, cfg.Aggregator.MaxBatchSize)
		assert.Equal(t, 5, cfg.Aggregator.FetchConcurrency)
		assert.Equal(t, 2, cfg.Aggregator.DepositAddressConcurrency)
		assert.Equal(t, 1, cfg.Aggregator.DepositTxConcurrency)
		assert.Empty(t, cfg.Chains())
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9000
aggregator:
  max_batch_size: 50
bitcoin:
  enabled: true
  host: 127.0.0.1:8332
  poll_interval: 3s
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 50, cfg.Aggregator.MaxBatchSize)
		assert.Equal(t, 5, cfg.Aggregator.FetchConcurrency)
		assert.Equal(t, 3*time.Second, cfg.Bitcoin.PollInterval)
		assert.Contains(t, cfg.Chains(), "btc")
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9000\n")
		t.Setenv("SERVER_PORT", "9100")
		t.Setenv("LTC_ENABLED", "true")
		t.Setenv("LTC_HOST", "localhost:9332")
		t.Setenv("AGGREGATOR_FETCH_CONCURRENCY", "8")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, 8, cfg.Aggregator.FetchConcurrency)
		assert.Equal(t, "localhost:9332", cfg.Litecoin.Host)
		assert.Contains(t, cfg.Chains(), "ltc")
	})

	t.Run("enabled chain without host is rejected", func(t *testing.T) {
		path := writeConfig(t, "bitcoin:\n  enabled: true\n")

		_, err := Load(path)

		assert.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("zero concurrency is rejected", func(t *testing.T) {
		path := writeConfig(t, "aggregator:\n  deposit_tx_concurrency: 0\n")

		_, err := Load(path)

		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [")

		_, err := Load(path)

		assert.ErrorContains(t, err, "failed to parse config file")
	})
}
