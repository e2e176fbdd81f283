package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/cmd/bms/commands"
	"github.com/odsconseil/bms/logger"
)

var rootCmd = &cobra.Command{
	Use:   "bms",
	Short: "BMS - Bid management scheduled-search service",
	Long: `BMS - Bid management scheduled-search service.

BMS re-runs saved keyword searches against external tender sources on a
recurring schedule and records what each run found.

Available commands:
  serve     - Start the management API and scheduler loop
  scheduler - Start the scheduler loop without the API
  search    - Run an ad-hoc search from the command line
  db        - Manage the BMS database

Examples:
  bms serve                          # API + scheduler in one process
  bms scheduler start                # Scheduler loop only
  bms search "cloud infrastructure"  # One-off search
  bms db stats                       # Database statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SchedulerCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
