/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cashbook engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, file, env, flags)
  2. Set up logging
  3. Open the blob store (SQLite or memory)
  4. Open the engine and load persisted state
  5. Start the checkpoint scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config          YAML config file (default: ./cashbook.yaml)
  --port            HTTP server port (default: 8080)
  --storage-driver  sqlite or memory (default: sqlite)
  --storage-path    SQLite database path (default: cashbook.db)
  --timezone        Day boundary time zone (default: Local)
  --currency        Display currency for exports (default: INR)
  --log-level       debug, info, warn, error
  --log-format      console, json
  --scenario        Reset and load a demo scenario at startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop checkpoints and write a final snapshot
  4. Close the store
  5. Exit

EXAMPLES:
  # Run with file database
  cashbook-server --storage-path=./data/cashbook.db

  # Run in memory with demo data
  cashbook-server --storage-driver=memory --scenario=household

  # Run on different port
  CASHBOOK_SERVER_PORT=3000 cashbook-server

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartspend/cashbook-engine/api"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/smartspend/cashbook-engine/cashbook/store"
	"github.com/smartspend/cashbook-engine/config"
	"github.com/smartspend/cashbook-engine/report"
	"github.com/smartspend/cashbook-engine/store/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile, scenario string

	root := &cobra.Command{
		Use:           "cashbook-server",
		Short:         "Personal cashbook ledger server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			logger, err := cfg.Logging.Logger(os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, scenario, logger)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./cashbook.yaml or $HOME/.config/cashbook/cashbook.yaml)")
	flags.StringVar(&scenario, "scenario", "", "reset and load a demo scenario at startup")
	flags.Int("port", 8080, "HTTP server port")
	flags.String("storage-driver", "sqlite", "storage driver (sqlite, memory)")
	flags.String("storage-path", "cashbook.db", "SQLite database path")
	flags.String("timezone", "Local", "time zone for day boundaries")
	flags.String("currency", "INR", "display currency for exports")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = v.BindPFlag("server.port", flags.Lookup("port"))
	_ = v.BindPFlag("storage.driver", flags.Lookup("storage-driver"))
	_ = v.BindPFlag("storage.path", flags.Lookup("storage-path"))
	_ = v.BindPFlag("locale.timezone", flags.Lookup("timezone"))
	_ = v.BindPFlag("locale.currency", flags.Lookup("currency"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cashbook-server", version)
		},
	})

	return root
}

func serve(ctx context.Context, cfg config.Config, scenario string, logger *slog.Logger) error {
	loc, err := cfg.Locale.Location()
	if err != nil {
		return err
	}
	cur, err := cfg.Locale.MoneyCurrency()
	if err != nil {
		return err
	}

	// Initialize store
	blobs, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	eng := cashbook.Open(ctx, blobs,
		cashbook.WithLocation(loc),
		cashbook.WithLogger(logger),
		cashbook.WithErrorHandler(func(err error) {
			logger.Error("persistence failed", "error", err)
		}),
	)
	logger.Info("engine ready",
		"driver", cfg.Storage.Driver,
		"books", eng.Books.Len(),
		"transactions", eng.Ledger.Len(),
	)

	handler := api.NewHandler(eng, report.Options{Location: loc, Currency: cur})
	if inspector, ok := blobs.(api.StorageInspector); ok {
		handler.Storage = inspector
	}
	if scenario != "" {
		if err := handler.ApplyScenario(scenario); err != nil {
			_ = eng.Close(context.Background())
			return err
		}
		logger.Info("scenario loaded", "scenario", scenario)
	}

	checkpoints := api.NewCheckpointScheduler(eng, cfg.Storage.Checkpoint, logger)
	handler.Checkpoints = checkpoints
	checkpoints.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", "http://localhost"+server.Addr, "api", "/api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case runErr = <-serveErr:
		if runErr != nil {
			runErr = fmt.Errorf("server failed: %w", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	checkpoints.Stop()
	if run := checkpoints.Checkpoint(shutdownCtx); run.Err != nil {
		logger.Error("final checkpoint failed", "error", run.Err)
	}
	if err := eng.Close(shutdownCtx); err != nil {
		logger.Error("failed to drain snapshots", "error", err)
	}

	logger.Info("server stopped")
	return runErr
}

// openStore returns the configured blob store and its close function.
func openStore(cfg config.StorageConfig) (cashbook.BlobStore, func() error, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemory(), func() error { return nil }, nil
	case "sqlite":
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
