package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unfold/internal/config"
	"github.com/JonMunkholm/unfold/internal/core"
	"github.com/JonMunkholm/unfold/internal/web"
)

func newQueryCmd(a *app) *cobra.Command {
	flags := &unfoldFlags{}
	cmd := &cobra.Command{
		Use:   "query [flags] sql col_to_unfold col_of_values",
		Short: "Unfold the result of a PostgreSQL query (needs DATABASE_URL)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Database.QueryTimeout)
			defer cancel()

			pool, err := openPool(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			cmd.SetContext(ctx)
			return runUnfold(cmd, core.FromQuery(pool, args[0]), args[1], args[2], flags.options(cmd, a.cfg))
		},
	}
	flags.register(cmd)
	return cmd
}

// openPool connects and pings, so a bad URL fails before the query runs.
func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	if db.URL == "" {
		return nil, &core.ArgumentError{Param: "DATABASE_URL", Reason: "not set; the query command needs a database"}
	}

	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, &core.ArgumentError{Param: "DATABASE_URL", Reason: err.Error()}
	}
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &core.IOError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &core.IOError{Op: "ping", Err: err}
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Debug("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve unfold over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr()
			}
			return serve(cmd.Context(), web.NewServer(a.cfg), addr, a.cfg.Server)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SERVER_HOST:SERVER_PORT)")
	return cmd
}

// serve runs the server until ctx is cancelled, then drains running jobs.
func serve(ctx context.Context, srv *web.Server, addr string, cfg config.ServerConfig) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
		return errors.Join(err, <-errCh)
	}
	return <-errCh
}
