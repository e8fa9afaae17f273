package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://api.intra.42.fr", cfg.Intra.BaseURL)
	assert.Equal(t, 100, cfg.Intra.PerPage)
	assert.Equal(t, 10, cfg.Intra.MaxPages)
	assert.True(t, cfg.UseRelay)
	assert.NoError(t, cfg.validate())
}

func TestApplyFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  client_id: uid
  client_secret: secret
  campus_id: 9
  request_timeout: 3s
  max_retries: 0
stream:
  url: https://meta.intra.42.fr/stream
browser:
  control_url: ws://127.0.0.1:9222
  headless: false
db_path: /tmp/ct.db
log_calls: true
`)
	cfg := DefaultConfig()
	require.NoError(t, applyFile(&cfg, path))

	assert.Equal(t, "uid", cfg.Intra.ClientID)
	assert.Equal(t, 9, cfg.Intra.CampusID)
	assert.Equal(t, 3*time.Second, cfg.Intra.RequestTimeout)
	assert.Equal(t, 0, cfg.Intra.MaxRetries)
	assert.Equal(t, 100, cfg.Intra.PerPage)
	assert.Equal(t, "https://meta.intra.42.fr/stream", cfg.StreamURL)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "/tmp/ct.db", cfg.DBPath)
	assert.True(t, cfg.LogCalls)
	assert.True(t, cfg.HasCredentials())
}

func TestApplyFile_MissingIsFine(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, applyFile(&cfg, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestApplyFile_Malformed(t *testing.T) {
	path := writeFile(t, "config.yaml", "api: [unterminated")
	cfg := DefaultConfig()
	assert.Error(t, applyFile(&cfg, path))
}

func TestApplyEnv_OverridesAndIgnoresBadValues(t *testing.T) {
	env := map[string]string{
		"CLUSTERTRACK_CLIENT_ID":   "env-uid",
		"CLUSTERTRACK_MAX_PAGES":   "3",
		"CLUSTERTRACK_PER_PAGE":    "lots",
		"CLUSTERTRACK_TIMEOUT_MS":  "-5",
		"CLUSTERTRACK_HEADLESS":    "maybe",
		"CLUSTERTRACK_RELAY":       "false",
		"CLUSTERTRACK_MAX_RETRIES": "0",
	}
	cfg := DefaultConfig()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "env-uid", cfg.Intra.ClientID)
	assert.Equal(t, 3, cfg.Intra.MaxPages)
	assert.Equal(t, 100, cfg.Intra.PerPage)
	assert.Equal(t, 15*time.Second, cfg.Intra.RequestTimeout)
	assert.True(t, cfg.Headless)
	assert.False(t, cfg.UseRelay)
	assert.Equal(t, 0, cfg.Intra.MaxRetries)
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "CLUSTERTRACK_STREAM_COOKIE"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})

	envFile := writeFile(t, ".env", key+"=session=abc\n")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "session=abc", cfg.StreamCookie)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Intra.PerPage = 500
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.Timezone = "Europe/Paris"
	assert.NoError(t, cfg.validate())
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
}
