package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
	assert.Equal(t, 30*time.Second, cfg.Bridge.LoginTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Bridge.PollInterval)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Nil(t, cfg.IRC)
	assert.Empty(t, cfg.Accounts)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadValidYAML(t *testing.T) {
	t.Setenv("GORDON_PW", "hunter2")
	path := writeConfig(t, `
logging:
  level: debug
bridge:
  loginTimeout: 5s
accounts:
  - id: steam-1
    username: gordon
    password: ${GORDON_PW}
    fixture: gordon.yaml
  - id: steam-2
    protocol: sim
    username: alyx
    password: pa$$word
    fixture: /abs/alyx.yaml
    disabled: true
irc:
  server: irc.example.net
  nick: imbridge
  channel: "#bridge"
  useTLS: true
hooks:
  session_start:
    - command: notify-send connected
      timeout: 2000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
	assert.Equal(t, 5*time.Second, cfg.Bridge.LoginTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Bridge.PollInterval)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "sim", cfg.Accounts[0].Protocol)
	assert.Equal(t, "hunter2", cfg.Accounts[0].Password)
	assert.Equal(t, "pa$$word", cfg.Accounts[1].Password)
	assert.True(t, cfg.Accounts[1].Disabled)

	require.NotNil(t, cfg.IRC)
	assert.Equal(t, 6697, cfg.IRC.Port)
	assert.Equal(t, "#bridge", cfg.IRC.Channel)

	require.Len(t, cfg.Hooks["session_start"], 1)
	assert.Equal(t, 2000, cfg.Hooks["session_start"][0].Timeout)

	acc, ok := cfg.Account("steam-2")
	assert.True(t, ok)
	assert.Equal(t, "alyx", acc.Username)
	_, ok = cfg.Account("steam-3")
	assert.False(t, ok)
}

func TestLoadPlainIRCPort(t *testing.T) {
	cfg, err := Load(writeConfig(t, "irc:\n  server: s\n  nick: n\n  channel: \"#c\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 6667, cfg.IRC.Port)
}

func TestLoadFeedToken(t *testing.T) {
	t.Setenv("FEED_TOKEN", "s3cret")
	path := writeConfig(t, `
feed:
  listen: 127.0.0.1:9000
  token: ${FEED_TOKEN}
  allowedOrigins: [http://ops.local]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Feed)
	assert.Equal(t, "127.0.0.1:9000", cfg.Feed.Listen)
	assert.Equal(t, "s3cret", cfg.Feed.Token)
	assert.Equal(t, []string{"http://ops.local"}, cfg.Feed.AllowedOrigins)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "accounts: [\n"))
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IMBRIDGE_LOG_LEVEL", "WARN")
	t.Setenv("IMBRIDGE_LOG_STYLE", "json")
	t.Setenv("IMBRIDGE_STORE", "none")
	t.Setenv("IMBRIDGE_STORE_PATH", "/tmp/j.db")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Equal(t, "none", cfg.Store.Backend)
	assert.Equal(t, "/tmp/j.db", cfg.Store.Path)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("IMB_SET", "value")
	os.Unsetenv("IMB_UNSET")

	assert.Equal(t, "value", ExpandEnv("${IMB_SET}"))
	assert.Equal(t, "x-value-y", ExpandEnv("x-${IMB_SET}-y"))
	assert.Equal(t, "${IMB_UNSET}", ExpandEnv("${IMB_UNSET}"))
	assert.Equal(t, "$IMB_SET", ExpandEnv("$IMB_SET"))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw := map[string]any{
		"bridge": map[string]any{
			"loginTimeout": "10s",
		},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"bridge", "loginTimeout"})
	assert.True(t, ok)
	assert.Equal(t, "10s", val)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Bridge.LoginTimeout)
}

func TestLoadRaw_MissingAndEmpty(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, raw)

	raw, err = LoadRaw(writeConfig(t, ""))
	require.NoError(t, err)
	assert.NotNil(t, raw)
	SetValueAtPath(raw, []string{"store", "backend"}, "none")
}
