package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WAYPOINT_CONFIG_PATH", dir)
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", c.BaseURL)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Empty(t, c.File)
	assert.NotEmpty(t, c.PrefsDir)
}

func TestFileThenEnv(t *testing.T) {
	dir := isolate(t)
	yaml := "base_url: http://board.local:9000/\ncsrf_token: abc\ntimeout: 3s\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".waypoint.yaml"), []byte(yaml), 0o644))

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "http://board.local:9000", c.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, "abc", c.CSRFToken)
	assert.Equal(t, 3*time.Second, c.Timeout)
	assert.Equal(t, filepath.Join(dir, ".waypoint.yaml"), c.File)

	t.Setenv("WAYPOINT_CSRF_TOKEN", "from-env")
	c, err = Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.CSRFToken)
}

func TestOverridesWin(t *testing.T) {
	isolate(t)
	v := New()
	v.Set(KeyAddr, ":9999")
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Addr)
}

func TestRejectsBadValues(t *testing.T) {
	isolate(t)
	v := New()
	v.Set(KeyLogLevel, "chatty")
	_, err := Load(v)
	assert.ErrorContains(t, err, "invalid log level")

	v = New()
	v.Set(KeyTimeout, "0s")
	_, err = Load(v)
	assert.ErrorContains(t, err, "timeout")
}

func TestMalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".waypoint.yaml"), []byte("base_url: [\n"), 0o644))
	_, err := Load(New())
	assert.ErrorContains(t, err, "reading config")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := Config{LogLevel: "warn"}.Logger(&buf)
	require.NoError(t, err)
	defer closer.Close()

	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN msg=shown k=1")
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoint.log")
	l, closer, err := Config{LogLevel: "debug", LogFile: path}.Logger(nil)
	require.NoError(t, err)
	l.Debug("to file")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=\"to file\"")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, l)
}
