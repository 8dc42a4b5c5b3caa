// Package cli wires configuration, logging, the gateway and the store into
// cobra commands. With no subcommand the terminal UI starts.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskdeck/internal/clock"
	"taskdeck/internal/config"
	"taskdeck/internal/gateway"
	"taskdeck/internal/logging"
	"taskdeck/internal/store"
	"taskdeck/internal/ui"
)

var Version = "dev"

// env is the state shared by every command once the config is loaded.
type env struct {
	configPath string
	cfg        config.Config
	log        *slog.Logger
	closers    []io.Closer
}

func (e *env) load(cmd *cobra.Command) error {
	path := e.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg
	e.log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

// tuiLogger keeps the terminal clean: the UI logs to log_path or nowhere.
func (e *env) tuiLogger() (*slog.Logger, error) {
	if e.cfg.LogPath == "" {
		return logging.Discard(), nil
	}
	l, c, err := logging.OpenFile(e.cfg.LogPath, e.cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	e.closers = append(e.closers, c)
	return l, nil
}

func (e *env) newStore(log *slog.Logger) (*store.Store, error) {
	endpoint, err := e.cfg.Endpoint()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrNotConfigured, err)
	}
	gw, err := gateway.New(gateway.Config{
		BaseURL: endpoint,
		Timeout: e.cfg.RequestTimeout.Duration,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("task service", "url", gw.BaseURL())
	st := store.New(gw, store.WithLogger(log))
	st.Subscribe(func(snap store.Snapshot) {
		log.Debug("store updated", "tasks", len(snap.Tasks), "pending", snap.Pending, "message", snap.Message)
	})
	return st, nil
}

// loadedStore returns a store already holding the remote collection.
func (e *env) loadedStore(ctx context.Context) (*store.Store, error) {
	st, err := e.newStore(e.log)
	if err != nil {
		return nil, err
	}
	if err := st.Refresh(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (e *env) close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
	e.closers = nil
}

func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Terminal client for a remote task list with deadlines",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), e)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/taskdeck/config.toml)")

	root.AddCommand(
		listCmd(e),
		addCmd(e),
		editCmd(e),
		doneCmd(e),
		rmCmd(e),
		serveCmd(e),
	)
	return root
}

func runTUI(ctx context.Context, e *env) error {
	defer e.close()
	log, err := e.tuiLogger()
	if err != nil {
		return err
	}
	st, err := e.newStore(log)
	if err != nil {
		return err
	}
	clk := clock.New(e.cfg.TickInterval.Duration)
	log.Debug("starting terminal ui", "tick", clk.Interval())
	return ui.Run(ctx, st, clk, e.cfg)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "taskdeck:", store.Message(err))
		return 1
	}
	return 0
}
