package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, "kuliah.json", cfg.Store.FilePath)
	assert.Equal(t, "0 5 * * *", cfg.Scheduler.DigestCron)
	assert.Equal(t, "*/1 * * * *", cfg.Scheduler.AlertCron)
	assert.Equal(t, 5, cfg.Scheduler.AlertLeadMinutes)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/kuliah")
	t.Setenv("ALERT_LEAD_MINUTES", "10")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, 10, cfg.Scheduler.AlertLeadMinutes)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.App.Environment = "qa" },
			wantErr: "APP_ENV",
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.Store.Backend = "s3" },
			wantErr: "STORE_BACKEND",
		},
		{
			name: "postgres backend without url",
			mutate: func(c *Config) {
				c.Store.Backend = StorePostgres
				c.Store.DatabaseURL = ""
			},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "empty session db",
			mutate:  func(c *Config) { c.WhatsApp.SessionDB = "" },
			wantErr: "WA_SESSION_DB",
		},
		{
			name:    "negative alert lead",
			mutate:  func(c *Config) { c.Scheduler.AlertLeadMinutes = -1 },
			wantErr: "ALERT_LEAD_MINUTES",
		},
		{
			name:    "bad http port",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantErr: "HTTP_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
