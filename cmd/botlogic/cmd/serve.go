package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/bot"
	"github.com/versal-platform/botlogic/pkg/config"
	"github.com/versal-platform/botlogic/pkg/coreclient"
	"github.com/versal-platform/botlogic/pkg/kvs"
	"github.com/versal-platform/botlogic/pkg/logging"
	"github.com/versal-platform/botlogic/pkg/server"
	"github.com/versal-platform/botlogic/pkg/session"
	"github.com/versal-platform/botlogic/pkg/watcher"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot logic server",
	Long: `Start the botlogic server with the specified configuration.

The server will:
- Load the configuration file
- Open the session store (memory, LevelDB, or Redis)
- Connect the auth and core service adapters
- Serve the /message and /tick endpoints
- Optionally run the sweep scheduler
- Handle graceful shutdown on SIGTERM/SIGINT`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewFileLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command-line flags override the config file
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	logger := logging.NewSimpleLogger("main", logging.ParseLevel(cfg.Logging.Level))
	logger.Info("Starting botlogic", "version", version)

	store, err := kvs.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	sessions := session.NewStore(store, cfg.Session.TTL)
	auth := authclient.New(cfg.Auth.BaseURL, cfg.Auth.Timeout)
	core := coreclient.New(cfg.Core.BaseURL, cfg.Core.Timeout, cfg.Core.DemoMode)
	if cfg.Core.DemoMode {
		logger.Warn("Core adapter running in demo mode, responses are canned")
	}

	svc := bot.New(sessions, auth, core, logger)
	srv := server.New(cfg, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hot reload applies only the log level; everything else needs a restart.
	cw, err := watcher.New(watcher.WatcherConfig{
		Loader:     loader,
		ConfigPath: cfgFile,
		Initial:    cfg,
		Logger:     logger,
		Applier: watcher.ApplierFunc(func(next *config.Config) error {
			logger.SetLevel(logging.ParseLevel(next.Logging.Level))
			logger.Info("Log level applied", "level", next.Logging.Level)
			return nil
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	go cw.Watch(ctx)

	if cfg.Sweep.Enabled {
		deliverer := server.NewWebhookDeliverer(cfg.Sweep.WebhookURL, cfg.Core.Timeout, logger)
		sched := server.NewScheduler(svc, deliverer, cfg.Sweep.Interval, logger)
		go sched.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
