package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/ingest"
)

var snapshotInput string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create a fallback snapshot from a dataset file",
	Long:  "Reads a CSV or XLSX dataset, keeps the rows missing at least one critical field (opening hours, cuisine type, price range, phone), and stores them as an immutable content-addressed snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := ingest.ReadFile(snapshotInput)
		if err != nil {
			return err
		}
		if err := ingest.Validate(records); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, status, err := env.Store.Create(ctx, records)
		if err != nil {
			return err
		}

		zap.L().Info("snapshot ready",
			zap.String("snapshot_id", snap.ID),
			zap.String("status", string(status)),
			zap.Int("rows", len(snap.Rows)),
			zap.Int("dataset_rows", len(records)),
		)

		fmt.Printf("Snapshot %s (%s)\n", snap.ID, status)
		fmt.Printf("  dataset rows:  %d\n", len(records))
		fmt.Printf("  snapshot rows: %d\n", len(snap.Rows))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotInput, "input", "", "dataset file (.csv or .xlsx)")
	_ = snapshotCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(snapshotCmd)
}
