package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "stockledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "stockledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 10*time.Second, cfg.HTTP.RequestTimeout)
		assert.Equal(t, 30, cfg.Ledger.DefaultPaymentTermDays)
		assert.Equal(t, time.Hour, cfg.Ledger.ExpirySweepInterval)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.Equal(t, 30*time.Second, cfg.Ledger.ReceiveLockTTL)
	})

	t.Run("loads values from environment variables with SL prefix", func(t *testing.T) {
		t.Setenv("SL_APP_PORT", "9000")
		t.Setenv("SL_DATABASE_HOST", "testdb.local")
		t.Setenv("SL_DATABASE_PORT", "5433")
		t.Setenv("SL_REDIS_ENABLED", "true")
		t.Setenv("SL_LEDGER_DEFAULT_PAYMENT_TERM_DAYS", "45")
		t.Setenv("SL_LEDGER_EXPIRY_SWEEP_INTERVAL", "15m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 45, cfg.Ledger.DefaultPaymentTermDays)
		assert.Equal(t, 15*time.Minute, cfg.Ledger.ExpirySweepInterval)
	})

	t.Run("keeps an explicit zero payment term", func(t *testing.T) {
		t.Setenv("SL_LEDGER_DEFAULT_PAYMENT_TERM_DAYS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Ledger.DefaultPaymentTermDays)
	})

	t.Run("rejects production without database password", func(t *testing.T) {
		t.Setenv("SL_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("idle connections above open connections", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
		assert.Error(t, cfg.validate())
	})

	t.Run("payment term out of range", func(t *testing.T) {
		cfg := base()
		cfg.Ledger.DefaultPaymentTermDays = 400
		assert.Error(t, cfg.validate())
	})

	t.Run("profiling without address", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.ProfilingEnabled = true
		assert.Error(t, cfg.validate())
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/ledger?sslmode=disable", cfg.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
