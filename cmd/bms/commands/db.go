package commands

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/scheduler"
)

// DbCmd groups database operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the BMS database",
	Long: `Manage BMS database operations.

Examples:
  bms db migrate                  # Apply pending schema migrations
  bms db stats                    # Show scheduled-search and run counts
  bms db cleanup --older-than 90  # Delete runs older than 90 days`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// openDatabase migrates as part of opening
		database, err := openDatabase(cfg, "")
		if err != nil {
			return err
		}
		defer database.Close()

		fmt.Println("Database is up to date")
		return nil
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runDbStats,
}

var dbCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old run history",
	Long:  "Delete search runs (and their results) executed more than --older-than days ago.",
	RunE:  runDbCleanup,
}

var cleanupOlderThanDays int

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbCleanupCmd)
	dbCleanupCmd.Flags().IntVar(&cleanupOlderThanDays, "older-than", 90, "Age threshold in days")
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := openDatabase(cfg, "")
	if err != nil {
		return err
	}
	defer database.Close()

	var totalSearches, activeSearches, totalRuns, totalResults int
	err = database.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM scheduled_searches),
			(SELECT COALESCE(SUM(is_active), 0) FROM scheduled_searches),
			(SELECT COUNT(*) FROM search_runs),
			(SELECT COUNT(*) FROM search_results)
	`).Scan(&totalSearches, &activeSearches, &totalRuns, &totalResults)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query stats: %w", err)
	}

	fmt.Printf("BMS Database Statistics\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Printf("Database Path:      %s\n", cfg.Database.Path)
	fmt.Printf("Scheduled Searches: %d (%d active)\n", totalSearches, activeSearches)
	fmt.Printf("Search Runs:        %d\n", totalRuns)
	fmt.Printf("Stored Results:     %d\n", totalResults)

	rows, err := database.Query(`
		SELECT frequency, COUNT(*) FROM scheduled_searches GROUP BY frequency ORDER BY frequency
	`)
	if err == nil {
		defer rows.Close()
		fmt.Printf("\nBy Frequency:\n")
		for rows.Next() {
			var frequency string
			var count int
			if err := rows.Scan(&frequency, &count); err != nil {
				return fmt.Errorf("failed to scan frequency row: %w", err)
			}
			fmt.Printf("  %-8s %d\n", frequency, count)
		}
	}

	return nil
}

func runDbCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := openDatabase(cfg, "")
	if err != nil {
		return err
	}
	defer database.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -cleanupOlderThanDays)
	deleted, err := scheduler.NewRunStore(database).CleanupOldRuns(cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up runs: %w", err)
	}

	fmt.Printf("Deleted %d run(s) older than %s\n", deleted, cutoff.Format("2006-01-02"))
	return nil
}
