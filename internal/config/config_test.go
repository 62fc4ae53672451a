package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "PLANIT_LLM_MODEL", "PLANIT_LLM_TEMPERATURE", "PLANIT_LLM_API_URL",
		"PLANIT_LLM_TIMEOUT_SECONDS", "PLANIT_PERSIST_TIMEOUT_SECONDS", "PLANIT_EVENTS_API_URL",
		"PLANIT_EVENTS_API_TOKEN", "PLANIT_DB_PATH", "PLANIT_HTTP_PORT", "PLANIT_LOG_LEVEL",
		"PLANIT_LOG_FORMAT", "PLANIT_DEFAULT_TIMEZONE", "PLANIT_SESSION_TTL_HOURS",
		"GOOGLE_CREDENTIALS_FILE", "GOOGLE_TOKEN_FILE", "PLANIT_GCAL_SYNC", "RESEND_API_KEY",
		"PLANIT_EMAIL_FROM", "PLANIT_APP_URL", "PLANIT_REMINDER_SCHEDULE", "PLANIT_REMINDER_LEAD_DAYS",
		"PLANIT_CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFromEnv()
	assert.Equal(t, "", cfg.AnthropicAPIKey)
	assert.Equal(t, "./planit.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 0.1, cfg.LLMTemperature)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 10*time.Second, cfg.PersistTimeout())
	assert.Equal(t, "0 9 * * *", cfg.ReminderSchedule)
	assert.Equal(t, 7*24*time.Hour, cfg.ReminderLead())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("PLANIT_HTTP_PORT", "9090")
	t.Setenv("PLANIT_GCAL_SYNC", "true")
	t.Setenv("PLANIT_LLM_TEMPERATURE", "0.4")
	t.Setenv("PLANIT_APP_URL", "https://planit.example/")

	cfg := LoadFromEnv()
	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.GCalSync)
	assert.Equal(t, 0.4, cfg.LLMTemperature)
	assert.Equal(t, "https://planit.example", cfg.AppURL)
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLANIT_HTTP_PORT", "eighty")
	t.Setenv("PLANIT_GCAL_SYNC", "maybe")

	cfg := LoadFromEnv()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.False(t, cfg.GCalSync)
}

func TestLoadWithFileOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "planit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: 7070
db_path: /var/lib/planit.db
default_timezone: Europe/Berlin
reminder_lead_days: 3
`), 0o600))

	t.Setenv("PLANIT_CONFIG_FILE", path)
	t.Setenv("PLANIT_DB_PATH", "/tmp/override.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTPPort)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath, "explicit env wins over file")
	assert.Equal(t, "Europe/Berlin", cfg.DefaultTimezone)
	assert.Equal(t, 3, cfg.ReminderLeadDays)
	assert.Equal(t, "0 9 * * *", cfg.ReminderSchedule, "absent keys keep defaults")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANIT_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("http_port: [not a number"), 0o600))
		t.Setenv("PLANIT_CONFIG_FILE", path)
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANIT_DEFAULT_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid log format", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANIT_LOG_FORMAT", "xml")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.HTTPPort = 1234
	require.NoError(t, cfg.WriteFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := Defaults()
	require.NoError(t, loaded.MergeFile(path))
	assert.Equal(t, 1234, loaded.HTTPPort)
}
