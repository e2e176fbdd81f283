package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/scheduler"
)

// SearchCmd runs an ad-hoc search through the provider chain.
var SearchCmd = &cobra.Command{
	Use:   "search <keywords>",
	Short: "Run an ad-hoc search from the command line",
	Long: `Run the given keywords through the configured provider chain once
and print the results.

With --save, the run is recorded in search history like an API ad-hoc
search (only when at least one result was found).

Examples:
  bms search "développement logiciel"
  bms search --save "audit énergétique"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		keywords := strings.Join(args, " ")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		chain := buildProviderChain(cfg)

		executedAt := time.Now().UTC()
		results, err := chain.Search(cmd.Context(), keywords)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Printf("No results for %q\n", keywords)
			return nil
		}

		fmt.Printf("Found %d result(s) for %q:\n\n", len(results), keywords)
		for i, r := range results {
			fmt.Printf("%2d. [%s] %s\n", i+1, r.Source, r.Title)
			if r.Description != "" {
				fmt.Printf("    %s\n", r.Description)
			}
			fmt.Printf("    %s\n\n", r.URL)
		}

		if save {
			database, err := openDatabase(cfg, "")
			if err != nil {
				return err
			}
			defer database.Close()

			stored := make([]scheduler.SearchResult, len(results))
			for i, r := range results {
				stored[i] = scheduler.SearchResult{
					Title:        r.Title,
					Description:  r.Description,
					URL:          r.URL,
					Source:       r.Source,
					DiscoveredAt: r.DiscoveredAt,
				}
			}

			run, err := scheduler.NewRunStore(database).RecordAdHocRun(keywords, stored, executedAt)
			if err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
			fmt.Printf("Recorded run %s\n", run.ID)
		}

		return nil
	},
}

func init() {
	SearchCmd.Flags().Bool("save", false, "Record the run in search history")
}
