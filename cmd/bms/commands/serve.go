package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/logger"
	"github.com/odsconseil/bms/scheduler"
	"github.com/odsconseil/bms/server"
)

// ServeCmd starts the management API together with the scheduler loop.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BMS management API and scheduler loop",
	Long: `Start the BMS service in foreground mode.

The process serves the management API and runs the scheduler loop that
re-executes due saved searches. Both share one database and one
provider chain. Runs until interrupted (Ctrl+C) with graceful shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		noScheduler, _ := cmd.Flags().GetBool("no-scheduler")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if port == 0 {
			port = cfg.ServerPort()
		}

		database, err := openDatabase(cfg, "")
		if err != nil {
			return err
		}
		defer database.Close()

		chain := buildProviderChain(cfg)
		store := scheduler.NewStore(database)
		executor := scheduler.NewExecutor(store, chain, logger.Logger)

		var ticker *scheduler.Ticker
		if !noScheduler {
			ticker = scheduler.NewTicker(store, executor, tickerConfig(cfg), logger.Logger)
			ticker.Start()
		}

		srv, err := server.NewServer(database, executor, chain, ticker, &cfg.Server, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- srv.Start(port)
		}()

		fmt.Printf("BMS serving on port %d\n", port)
		if !noScheduler {
			fmt.Printf("  Scheduler interval: %v\n", tickerConfig(cfg).Interval)
		}
		fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serveErr:
			if ticker != nil {
				ticker.Stop()
			}
			return err
		case <-sigChan:
		}

		fmt.Println("\nShutting down...")

		// Stop components in reverse order of startup
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("HTTP shutdown error", "error", err)
		}
		if ticker != nil {
			ticker.Stop()
		}

		fmt.Println("BMS stopped")
		return nil
	},
}

func tickerConfig(cfg *config.Config) scheduler.TickerConfig {
	return scheduler.TickerConfig{
		Interval:     time.Duration(cfg.Scheduler.TickIntervalSeconds) * time.Second,
		StartupDelay: time.Duration(cfg.Scheduler.StartupDelaySeconds) * time.Second,
		ItemCooldown: time.Duration(cfg.Scheduler.ItemCooldownSeconds) * time.Second,
		BatchLimit:   cfg.Scheduler.BatchLimit,
	}
}

func init() {
	ServeCmd.Flags().Int("port", 0, "Port to listen on (default from config)")
	ServeCmd.Flags().Bool("no-scheduler", false, "Serve the API without the scheduler loop")
}
