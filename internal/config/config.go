// Package config resolves settings from flags, environment and an optional
// .waypoint.yaml file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyBaseURL   = "base_url"
	KeyCSRFToken = "csrf_token"
	KeyLogLevel  = "log_level"
	KeyLogFile   = "log_file"
	KeyPrefsDir  = "prefs_dir"
	KeyTimeout   = "timeout"
	KeyDB        = "db"
	KeyAddr      = "addr"
)

// Config is the resolved settings snapshot.
type Config struct {
	BaseURL   string
	CSRFToken string
	LogLevel  string
	LogFile   string
	PrefsDir  string
	Timeout   time.Duration
	DB        string
	Addr      string

	// File is the config file that was read, if any.
	File string
}

// New returns a viper instance with defaults, env binding and search paths.
// $WAYPOINT_CONFIG_PATH is searched first, then $HOME, then the working
// directory.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBaseURL, "http://127.0.0.1:8000")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyPrefsDir, defaultPrefsDir())
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyDB, "waypoint.db")
	v.SetDefault(KeyAddr, "127.0.0.1:8000")

	v.SetConfigName(".waypoint") // .yaml is implicit
	v.SetEnvPrefix("WAYPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("WAYPOINT_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("$HOME")
	v.AddConfigPath("./")
	return v
}

// Load reads the config file if there is one and returns the snapshot.
// A missing file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	c := Config{
		BaseURL:   strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		CSRFToken: v.GetString(KeyCSRFToken),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFile:   v.GetString(KeyLogFile),
		PrefsDir:  v.GetString(KeyPrefsDir),
		Timeout:   v.GetDuration(KeyTimeout),
		DB:        v.GetString(KeyDB),
		Addr:      v.GetString(KeyAddr),
		File:      v.ConfigFileUsed(),
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return Config{}, err
	}
	if c.Timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return c, nil
}

func defaultPrefsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".waypoint"
	}
	return filepath.Join(dir, "waypoint")
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return l, nil
}

// Logger builds the text logger. Without a log file, output goes to
// fallback; pass io.Discard when the terminal is taken by a TUI.
func (c Config) Logger(fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = fallback
	var closer io.Closer = nopCloser{}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closer = f, f
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
