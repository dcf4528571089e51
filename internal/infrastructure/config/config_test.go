package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"TRAVELCRM_APP_NAME":                os.Getenv("TRAVELCRM_APP_NAME"),
		"TRAVELCRM_APP_ENV":                 os.Getenv("TRAVELCRM_APP_ENV"),
		"TRAVELCRM_DATABASE_HOST":           os.Getenv("TRAVELCRM_DATABASE_HOST"),
		"TRAVELCRM_DATABASE_PORT":           os.Getenv("TRAVELCRM_DATABASE_PORT"),
		"TRAVELCRM_DATABASE_USER":           os.Getenv("TRAVELCRM_DATABASE_USER"),
		"TRAVELCRM_DATABASE_PASSWORD":       os.Getenv("TRAVELCRM_DATABASE_PASSWORD"),
		"TRAVELCRM_DATABASE_DBNAME":         os.Getenv("TRAVELCRM_DATABASE_DBNAME"),
		"TRAVELCRM_DATABASE_SSLMODE":        os.Getenv("TRAVELCRM_DATABASE_SSLMODE"),
		"TRAVELCRM_DATABASE_MAX_OPEN_CONNS": os.Getenv("TRAVELCRM_DATABASE_MAX_OPEN_CONNS"),
		"TRAVELCRM_DATABASE_MAX_IDLE_CONNS": os.Getenv("TRAVELCRM_DATABASE_MAX_IDLE_CONNS"),
		"TRAVELCRM_FISCAL_BASE_URL":         os.Getenv("TRAVELCRM_FISCAL_BASE_URL"),
		"TRAVELCRM_FISCAL_TOKEN":            os.Getenv("TRAVELCRM_FISCAL_TOKEN"),
		"TRAVELCRM_FISCAL_SETTLE_DELAY":     os.Getenv("TRAVELCRM_FISCAL_SETTLE_DELAY"),
		"TRAVELCRM_LOYALTY_PASSWORD":        os.Getenv("TRAVELCRM_LOYALTY_PASSWORD"),
		"TRAVELCRM_REFUND_STAGE_ID":         os.Getenv("TRAVELCRM_REFUND_STAGE_ID"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "travelcrm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "travelcrm", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 2*time.Second, cfg.Fiscal.SettleDelay)
		assert.Equal(t, "receipt", cfg.Fiscal.URLPrefix)
		assert.Equal(t, 100, cfg.Outbox.BatchSize)
		assert.Equal(t, 5, cfg.Outbox.MaxRetries)
		assert.Equal(t, 30*time.Second, cfg.Scheduler.PollInterval)
		assert.Equal(t, "C5:REFUND", cfg.Refund.StageID)
		assert.Equal(t, "C5:CONTROL", cfg.Accounting.ControlStageID)
		assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	})

	t.Run("loads values from environment variables with TRAVELCRM prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("TRAVELCRM_APP_NAME", "test-app")
		os.Setenv("TRAVELCRM_APP_ENV", "testing")
		os.Setenv("TRAVELCRM_DATABASE_HOST", "testdb.local")
		os.Setenv("TRAVELCRM_DATABASE_PORT", "5433")
		os.Setenv("TRAVELCRM_DATABASE_USER", "testuser")
		os.Setenv("TRAVELCRM_DATABASE_PASSWORD", "testpass")
		os.Setenv("TRAVELCRM_DATABASE_DBNAME", "testdb")
		os.Setenv("TRAVELCRM_DATABASE_SSLMODE", "require")
		os.Setenv("TRAVELCRM_FISCAL_BASE_URL", "https://ofd.test")
		os.Setenv("TRAVELCRM_FISCAL_SETTLE_DELAY", "5s")
		os.Setenv("TRAVELCRM_REFUND_STAGE_ID", "C7:RETURN")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, "https://ofd.test", cfg.Fiscal.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Fiscal.SettleDelay)
		assert.Equal(t, "C7:RETURN", cfg.Refund.StageID)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("TRAVELCRM_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("TRAVELCRM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("TRAVELCRM_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("production requires database password", func(t *testing.T) {
		clearEnv()
		os.Setenv("TRAVELCRM_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("production requires fiscal token", func(t *testing.T) {
		clearEnv()
		os.Setenv("TRAVELCRM_APP_ENV", "production")
		os.Setenv("TRAVELCRM_DATABASE_PASSWORD", "secret")
		os.Setenv("TRAVELCRM_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fiscal.token")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "app",
		Password: "p@ss/word",
		DBName:   "travelcrm",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Raw special characters in the password must not leak into the DSN
	assert.NotContains(t, dsn, "p@ss/word")
}
