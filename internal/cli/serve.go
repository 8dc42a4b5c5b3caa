package cli

import (
	"context"
	"fmt"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"taskdeck/internal/server"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(e *env) *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local task service backed by sqlite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			if dbPath == "" {
				dbPath = e.cfg.Server.DBPath
			}
			return runServer(cmd.Context(), e, addr, dbPath)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from [server].addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default from [server].db_path)")
	return cmd
}

func runServer(ctx context.Context, e *env, addr, dbPath string) error {
	repo, err := server.OpenRepository(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	srv := server.New(repo, e.log)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.Listen(addr)
	}()

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		// The database closes only after in-flight requests have drained.
		"task-server": func(ctx context.Context) error {
			e.log.Info("shutting down task server")
			if err := srv.Shutdown(ctx); err != nil {
				_ = repo.Close()
				return err
			}
			return repo.Close()
		},
	})

	select {
	case err := <-listenErr:
		_ = repo.Close()
		return fmt.Errorf("listen %s: %w", addr, err)
	case code := <-wait:
		if code != 0 {
			return fmt.Errorf("task server exited with code %d", code)
		}
		e.log.Info("task server stopped")
		return nil
	}
}
