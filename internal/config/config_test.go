package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "root:@tcp(localhost:3306)/mailbox?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.Equal(t, 1440, cfg.JWTExpirationMinutes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "local", cfg.Attachments.Backend)
	assert.Equal(t, int64(10<<20), cfg.Attachments.MaxBytes)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	assert.Equal(t, "mailbox-server", cfg.Telemetry.ServiceName)
	assert.Equal(t, time.Minute, cfg.Telemetry.MetricInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_PostgresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USERNAME", "mail")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=mail password=secret dbname=mailbox sslmode=disable", cfg.Database.DSN)
}

func TestLoadConfig_ExplicitDSNWins(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad expiration", "JWT_EXPIRATION_MINUTES", "soon"},
		{"bad shutdown", "SHUTDOWN_TIMEOUT", "10"},
		{"bad max bytes", "ATTACHMENT_MAX_BYTES", "big"},
		{"bad path style", "S3_PATH_STYLE", "maybe"},
		{"bad backend", "ATTACHMENT_BACKEND", "ftp"},
		{"bad driver", "DB_DRIVER", "oracle"},
		{"bad exporter", "OTEL_EXPORTER", "jaeger"},
		{"bad metric interval", "OTEL_METRIC_INTERVAL", "often"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
