package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAY_EXCHANGE_API_KEY", "key")
	t.Setenv("PAY_EXCHANGE_API_SECRET", "secret")
	t.Setenv("PAY_POLLING_MAX_ATTEMPTS", "30")
	t.Setenv("PAY_POLLING_INTERVAL", "10s")
	t.Setenv("PAY_CUSTODY_EVM_CHAIN_ID", "80002")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.Exchange.APIKey)
	assert.Equal(t, "secret", cfg.Exchange.APISecret)
	assert.Equal(t, 30, cfg.Polling.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, int64(80002), cfg.Custody.EVM.ChainID)
	assert.Same(t, cfg, Get())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAY_EXCHANGE_API_KEY", "key")
	t.Setenv("PAY_EXCHANGE_API_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ff.io", cfg.Exchange.BaseURL)
	assert.Equal(t, "USDTPOL", cfg.Exchange.Source)
	assert.Equal(t, int32(6), cfg.Custody.EVM.TokenDecimals)
	assert.Equal(t, uint64(70000), cfg.Custody.EVM.GasLimit)
	assert.Equal(t, 300, cfg.Polling.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Polling.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CheckpointTTL)
	assert.Equal(t, 2*time.Minute, cfg.Custody.EVM.ReceiptTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Custody.Solana.ReceiptTimeout)
	assert.Equal(t, 3*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAY_EXCHANGE_API_KEY", "")
	t.Setenv("PAY_EXCHANGE_API_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAY_EXCHANGE_API_KEY")
}

func TestValidate_PollingBounds(t *testing.T) {
	cfg := &Config{
		Exchange: ExchangeConfig{APIKey: "k", APISecret: "s"},
		Polling:  PollingConfig{Interval: time.Second, MaxAttempts: 0},
		Redis:    RedisConfig{LockTTL: time.Minute},
	}
	assert.Error(t, cfg.Validate())

	cfg.Polling.MaxAttempts = 1
	assert.NoError(t, cfg.Validate())

	cfg.Polling.Interval = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_LockMustOutliveReceiptWait(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAY_EXCHANGE_API_KEY", "key")
	t.Setenv("PAY_EXCHANGE_API_SECRET", "secret")
	t.Setenv("PAY_REDIS_LOCK_TTL", "1m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.lock_ttl")

	t.Setenv("PAY_REDIS_LOCK_TTL", "5m")
	t.Setenv("PAY_CUSTODY_SOLANA_RECEIPT_TIMEOUT", "6m")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custody.solana.receipt_timeout (6m0s)")

	t.Setenv("PAY_CUSTODY_SOLANA_RECEIPT_TIMEOUT", "90s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Custody.Solana.ReceiptTimeout)
}
