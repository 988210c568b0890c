package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/leitner/internal/storage"
	"github.com/conorfennell/leitner/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// serve runs the HTTP server and the database watcher until ctx is done.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr: a.cfg.Addr,
		Handler: web.NewServer(web.Deps{
			Store:   a.db,
			Catalog: a.catalog,
			Study:   a.study,
			Sync:    a.syncer,
			Clock:   a.clock,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watchDatabase(ctx, a.db.Path(), func() {
			slog.Debug("database changed; the next request reloads it")
		})
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// watchDatabase blocks until ctx is done, calling onChange when the database
// at path is written. Watcher failures are logged and end the watch only.
func watchDatabase(ctx context.Context, path string, onChange func()) {
	if err := storage.NewWatcher(path).Run(ctx, onChange); err != nil {
		slog.Warn("database watcher stopped", "path", path, "error", err)
	}
}
