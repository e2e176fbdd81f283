package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/logger"
	"github.com/odsconseil/bms/scheduler"
)

// SchedulerCmd groups scheduler loop operations.
var SchedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the recurring-search scheduler loop",
	Long: `Manage the scheduler loop that re-executes due saved searches.

Example:
  bms scheduler start   # Run the loop in foreground, without the API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler loop in foreground mode",
	Long: `Start the scheduler loop without the management API.

Useful when the API runs in a separate process (bms serve --no-scheduler).
Runs until interrupted; an in-flight batch finishes before exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		database, err := openDatabase(cfg, "")
		if err != nil {
			return err
		}
		defer database.Close()

		chain := buildProviderChain(cfg)
		store := scheduler.NewStore(database)
		executor := scheduler.NewExecutor(store, chain, logger.Logger)

		tickerCfg := tickerConfig(cfg)
		ticker := scheduler.NewTicker(store, executor, tickerCfg, logger.Logger)
		ticker.Start()

		fmt.Printf("Scheduler started\n")
		fmt.Printf("  Tick interval: %v\n", tickerCfg.Interval)
		fmt.Printf("  Startup delay: %v\n", tickerCfg.StartupDelay)
		fmt.Printf("  Batch limit:   %d\n", tickerCfg.BatchLimit)
		fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		fmt.Println("\nStopping scheduler...")
		ticker.Stop()
		fmt.Println("Scheduler stopped")
		return nil
	},
}

func init() {
	SchedulerCmd.AddCommand(schedulerStartCmd)
}
