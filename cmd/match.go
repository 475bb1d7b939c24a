package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tablefare/enrich-cli/internal/model"
)

var matchSnapshotID string

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run fallback matching for a stored snapshot",
	Long:  "Matches every row of a snapshot against the listing site, merges accepted results into the base dataset and writes the final CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Runner.Run(ctx, matchSnapshotID)
		if err != nil {
			return err
		}

		fmt.Printf("Run complete for snapshot %s in %s\n", res.SnapshotID, res.Duration.Round(10*time.Millisecond))
		fmt.Printf("  found:     %d\n", res.Found)
		fmt.Printf("  not_found: %d\n", res.NotFound)
		fmt.Printf("  errors:    %d\n", res.Errored)
		fmt.Printf("  final dataset: %d rows -> %s\n", res.FinalDatasetCount, res.CSVPath)

		for _, mr := range res.Results {
			switch mr.Status {
			case model.MatchStatusFound:
				fmt.Printf("  [found]     %s  conf=%.2f  %s\n", mr.PlaceID, *mr.Confidence, mr.URL)
			case model.MatchStatusError:
				fmt.Printf("  [error]     %s  %s\n", mr.PlaceID, mr.MatchNotes)
			default:
				fmt.Printf("  [not found] %s  %s\n", mr.PlaceID, mr.MatchNotes)
			}
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchSnapshotID, "snapshot", "", "snapshot id to match")
	_ = matchCmd.MarkFlagRequired("snapshot")
	rootCmd.AddCommand(matchCmd)
}
