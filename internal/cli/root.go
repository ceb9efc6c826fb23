// Package cli is the waypoint command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Makepad-fr/waypoint/internal/config"
	"github.com/Makepad-fr/waypoint/internal/prefs"
	"github.com/Makepad-fr/waypoint/internal/remote"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

// annotation marking commands that own the terminal; their logs must not
// go to stderr.
const fullscreen = "fullscreen"

// App is the state shared by every command after PersistentPreRunE.
type App struct {
	ConfigFile string

	v        *viper.Viper
	cfg      config.Config
	logger   *slog.Logger
	closeLog io.Closer
	prefs    *prefs.Prefs
}

func NewRootCmd() *cobra.Command {
	app := &App{v: config.New()}

	cmd := &cobra.Command{
		Use:          "waypoint",
		Short:        "Checkpoint timelines and kanban boards, synced with a remote tracker",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Interactive timeline of request 12
  waypoint timeline 12

  # Kanban board of project 3
  waypoint board 3

  # Scriptable checkpoint commands
  waypoint checkpoints ls --request 12
  waypoint checkpoints add --request 12 "Send invoice"

  # Local reference server
  waypoint serve --addr 127.0.0.1:8000
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog.Close()
		}
		return nil
	}

	f := cmd.PersistentFlags()
	f.StringVar(&app.ConfigFile, "config", "", "config file (default: .waypoint.yaml in $WAYPOINT_CONFIG_PATH, $HOME or ./)")
	f.String("base-url", "", "tracker base URL")
	f.String("csrf-token", "", "CSRF token to send instead of the csrftoken cookie")
	f.String("log-level", "", "log level (debug|info|warn|error)")
	f.String("log-file", "", "append logs to this file")
	f.String("prefs-dir", "", "directory for persisted preferences")
	f.Duration("timeout", 0, "per-request timeout")
	for key, name := range map[string]string{
		config.KeyBaseURL:   "base-url",
		config.KeyCSRFToken: "csrf-token",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFile:   "log-file",
		config.KeyPrefsDir:  "prefs-dir",
		config.KeyTimeout:   "timeout",
	} {
		_ = app.v.BindPFlag(key, f.Lookup(name))
	}

	cmd.AddCommand(newTimelineCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newCheckpointsCmd(app))
	cmd.AddCommand(newTaskCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	return cmd
}

func (app *App) load(cmd *cobra.Command) error {
	if app.ConfigFile != "" {
		app.v.SetConfigFile(app.ConfigFile)
	}
	cfg, err := config.Load(app.v)
	if err != nil {
		return err
	}
	app.cfg = cfg

	var sink io.Writer = cmd.ErrOrStderr()
	if cmd.Annotations[fullscreen] == "true" {
		sink = io.Discard
	}
	logger, closer, err := cfg.Logger(sink)
	if err != nil {
		return err
	}
	app.logger, app.closeLog = logger, closer
	slog.SetDefault(logger)
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	app.prefs = prefs.Open(cfg.PrefsDir, logger)
	return nil
}

// channel builds a remote channel whose CSRF token comes from the
// configured override or from the cookie the tracker sets.
func (app *App) channel() (*remote.Channel, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return remote.NewChannel(app.cfg.BaseURL,
		remote.WithHTTPClient(&http.Client{Jar: jar}),
		remote.WithTimeout(app.cfg.Timeout),
		remote.WithTokenSource(remote.CookieTokenSource{Jar: jar, Override: app.cfg.CSRFToken}),
		remote.WithLogger(app.logger),
	)
}

func (app *App) theme() ui.Theme { return ui.Named(app.prefs.Theme()) }

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: not a valid id: %q", what, s)
	}
	return id, nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the command tree and maps the outcome to an exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(ctx); err != nil {
		ui.Fail(stderr, ui.Dark(), err.Error())
		return 1
	}
	return 0
}
