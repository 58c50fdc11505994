package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENTIPULSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MINO_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.AnalyzeTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "https://mino.ai", cfg.Automation.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Automation.Timeout)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	t.Setenv("SENTIPULSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEMINI_API_KEY", "gk-123")
	t.Setenv("MINO_API_KEY", "mk-456")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gk-123", cfg.Gemini.APIKey)
	assert.Equal(t, "mk-456", cfg.Automation.APIKey)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gemini:
  api_key: file-key
automation:
  api_key: file-mino-key
`), 0o644))

	t.Setenv("SENTIPULSE_CONFIG", path)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MINO_API_KEY", "")
	t.Setenv("SENTIPULSE_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Gemini.APIKey, "file supplies values the env leaves empty")
	assert.Equal(t, "file-mino-key", cfg.Automation.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level, "env wins over file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			Logging:    LoggingConfig{Level: "info"},
			Automation: AutomationConfig{Timeout: time.Minute},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive automation timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Automation.Timeout = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestValidateCredentials(t *testing.T) {
	cfg := &Config{}

	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	cfg.Gemini.APIKey = "gk"
	err = cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINO_API_KEY")

	cfg.Automation.APIKey = "mk"
	assert.NoError(t, cfg.ValidateCredentials())
}
