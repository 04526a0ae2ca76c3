package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
		assert.Equal(t, FailurePolicyAbort, cfg.Conversion.FailurePolicy)
		assert.Equal(t, "data/conversions.db", cfg.Database.Path)
		assert.False(t, cfg.Storage.ArchiveEnabled)
		assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  write_timeout: 2m
conversion:
  template_path: /srv/templates/matrix.xlsx
  failure_policy: skip
storage:
  archive_enabled: true
  archive_dir: /srv/archive
`), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
		assert.Equal(t, "/srv/templates/matrix.xlsx", cfg.Conversion.TemplatePath)
		assert.Equal(t, FailurePolicySkip, cfg.Conversion.FailurePolicy)
		assert.True(t, cfg.Storage.ArchiveEnabled)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("MATRIX_CONVERSION_FAILURE_POLICY", "skip")
		t.Setenv("MATRIX_SERVER_PORT", "7000")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, FailurePolicySkip, cfg.Conversion.FailurePolicy)
		assert.Equal(t, 7000, cfg.Server.Port)
	})

	t.Run("unknown failure policy is rejected", func(t *testing.T) {
		t.Setenv("MATRIX_CONVERSION_FAILURE_POLICY", "retry")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conversion.failure_policy")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:     ServerConfig{Port: 8080, MaxUploadBytes: 1},
			Database:   DatabaseConfig{Path: "x.db"},
			Conversion: ConversionConfig{TemplatePath: "t.xlsx", FailurePolicy: FailurePolicyAbort},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no template", func(c *Config) { c.Conversion.TemplatePath = "" }, "conversion.template_path"},
		{"archive without dir", func(c *Config) { c.Storage.ArchiveEnabled = true }, "storage.archive_dir"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
