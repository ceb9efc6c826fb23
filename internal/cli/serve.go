package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/waypoint/internal/config"
	"github.com/Makepad-fr/waypoint/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var noSeed bool
	var author string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local reference tracker over SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			db, err := server.Open(ctx, app.cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			if !noSeed {
				if err := db.Seed(ctx); err != nil {
					return err
				}
			}
			srv := &http.Server{
				Addr:              app.cfg.Addr,
				Handler:           server.New(db, server.WithLogger(app.logger), server.WithAuthor(author)),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			app.logger.Info("serving", "addr", app.cfg.Addr, "db", app.cfg.DB)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdown); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("db", "", "SQLite database path")
	f.String("addr", "", "listen address")
	f.BoolVar(&noSeed, "no-seed", false, "do not seed an empty database with sample data")
	f.StringVar(&author, "author", "manager", "user name chat messages are attributed to")
	_ = app.v.BindPFlag(config.KeyDB, f.Lookup("db"))
	_ = app.v.BindPFlag(config.KeyAddr, f.Lookup("addr"))
	return cmd
}
