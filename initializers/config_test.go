package initializers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/churchly")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("SECRET", "s3cret")
	t.Setenv("PRAYER_REQUEST_TTL", "12h")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/churchly", cfg.DBURL)
	assert.Equal(t, 12*time.Hour, cfg.PrayerRequestTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing required values",
			mutate:  func(c *Config) { c.Secret = "" },
			wantErr: "SECRET",
		},
		{
			name:    "prayer request ttl too short",
			mutate:  func(c *Config) { c.PrayerRequestTTL = time.Second },
			wantErr: "PRAYER_REQUEST_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DBURL = "postgres://localhost/churchly"
			cfg.MongoURI = "mongodb://localhost:27017"
			cfg.Secret = "s3cret"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
