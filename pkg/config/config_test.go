package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_NeedsSecret(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8001", cfg.Listen)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required")

	cfg.Auth.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, `unknown store driver: "redis"`},
		{"missing dsn", func(c *Config) { c.Store.DSN = "" }, "store dsn is required for driver sqlite"},
		{"memory needs no dsn", func(c *Config) { c.Store.Driver = DriverMemory; c.Store.DSN = "" }, ""},
		{"mongo needs db", func(c *Config) { c.Store.Driver = DriverMongo; c.Store.Database = "" }, "DB_NAME is required for mongo"},
		{"bcrypt too low", func(c *Config) { c.Auth.BcryptCost = 2 }, "bcrypt cost must be between 4 and 31, got 2"},
		{"unknown oracle", func(c *Config) { c.Oracle.Kind = "binance" }, `unknown oracle: "binance"`},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "token ttl must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "s3cret"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errMsg)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradedesk.yaml")
	yamlText := `
listen: ":9000"
store:
  driver: badger
  dsn: /tmp/td-badger
auth:
  jwt_secret: from-file
  token_ttl: 24h
  bcrypt_cost: 4
bots:
  simulate_profit: false
market:
  stream_interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0o644))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TRADEDESK_SEED_DEMO_BOTS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "/tmp/td-badger", cfg.Store.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Bots.SimulateProfit)
	assert.True(t, cfg.Bots.SeedOnStart)
	assert.Equal(t, 2*time.Second, cfg.Market.StreamInterval)
}

func TestLoad_BadDurationEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TRADEDESK_TOKEN_TTL", "seven days")
	_, err := Load("")
	assert.Error(t, err)
}
