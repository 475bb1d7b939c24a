// Package pipeline sequences a matching run: snapshot lookup, per-row
// candidate selection, fill-null merge and persistence of the final
// dataset.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tablefare/enrich-cli/internal/match"
	"github.com/tablefare/enrich-cli/internal/merge"
	"github.com/tablefare/enrich-cli/internal/model"
	"github.com/tablefare/enrich-cli/internal/snapshot"
)

// maxDiagnosticLen bounds the error text recorded on a degraded row.
const maxDiagnosticLen = 200

// Matcher matches one query; satisfied by *match.Selector.
type Matcher interface {
	Select(ctx context.Context, q match.Query) (*match.Selection, error)
}

// Options configures a Runner.
type Options struct {
	// Workers bounds concurrent row matching. 1 reproduces the strictly
	// sequential reference behavior.
	Workers int

	// OutputDir is where merged datasets are written.
	OutputDir string
}

// RunResult summarizes a completed matching run.
type RunResult struct {
	SnapshotID        string              `json:"snapshot_id"`
	Results           []model.MatchResult `json:"results"`
	Found             int                 `json:"found"`
	NotFound          int                 `json:"not_found"`
	Errored           int                 `json:"errored"`
	FinalDatasetCount int                 `json:"final_dataset_count"`
	CSVPath           string              `json:"csv_path"`
	Duration          time.Duration       `json:"-"`
}

// Runner drives matching runs over stored snapshots.
type Runner struct {
	store   snapshot.Store
	matcher Matcher
	opts    Options
}

// NewRunner creates a Runner.
func NewRunner(store snapshot.Store, matcher Matcher, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Runner{store: store, matcher: matcher, opts: opts}
}

// Run matches every row of the snapshot, merges the results into the base
// dataset and persists the merged CSV. It always produces exactly one
// MatchResult per snapshot row: individual failures degrade that row, not
// the batch. An unknown snapshot id fails the whole run before any row is
// processed.
func (r *Runner) Run(ctx context.Context, snapshotID string) (*RunResult, error) {
	start := time.Now()

	snap, err := r.store.Get(ctx, snapshotID)
	if err != nil {
		if eris.Is(err, snapshot.ErrNotFound) {
			return nil, eris.Wrapf(err, "pipeline: unknown snapshot %s (create it again via the snapshot endpoint)", snapshotID)
		}
		return nil, eris.Wrapf(err, "pipeline: load snapshot %s", snapshotID)
	}

	results := make([]model.MatchResult, len(snap.Rows))

	if len(snap.Rows) > 0 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Workers)
		for i, row := range snap.Rows {
			g.Go(func() error {
				// Result slots are indexed by input position so output
				// order never depends on completion order.
				results[i] = r.matchRow(gCtx, row)
				return nil
			})
		}
		// Workers never return errors; rows degrade individually.
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: run cancelled")
		}
	}

	base, err := r.store.BaseDataset(ctx, snapshotID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load base dataset %s", snapshotID)
	}

	finalRecords := merge.Merge(base, results)

	csvPath := filepath.Join(r.opts.OutputDir, fmt.Sprintf("final_dataset_%s.csv", snapshotID))
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create output dir %s", r.opts.OutputDir)
	}
	if err := merge.WriteCSV(csvPath, finalRecords); err != nil {
		return nil, err
	}

	res := &RunResult{
		SnapshotID:        snapshotID,
		Results:           results,
		FinalDatasetCount: len(finalRecords),
		CSVPath:           csvPath,
		Duration:          time.Since(start),
	}
	for _, mr := range results {
		switch mr.Status {
		case model.MatchStatusFound:
			res.Found++
		case model.MatchStatusError:
			res.Errored++
		default:
			res.NotFound++
		}
	}

	zap.L().Info("pipeline: run complete",
		zap.String("snapshot_id", snapshotID),
		zap.Int("rows", len(snap.Rows)),
		zap.Int("found", res.Found),
		zap.Int("not_found", res.NotFound),
		zap.Int("errored", res.Errored),
		zap.String("csv_path", csvPath),
		zap.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

// matchRow runs one row end to end, converting any panic or error into an
// error-status result so the batch invariant holds.
func (r *Runner) matchRow(ctx context.Context, row model.SnapshotRow) (result model.MatchResult) {
	result = model.MatchResult{PlaceID: row.PlaceID}

	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("pipeline: row panicked",
				zap.String("place_id", row.PlaceID),
				zap.Any("panic", rec),
			)
			result.Status = model.MatchStatusError
			result.MatchNotes = truncate(fmt.Sprintf("panic: %v", rec))
		}
	}()

	sel, err := r.matcher.Select(ctx, match.Query{
		Name:      row.Name,
		City:      row.City,
		Area:      row.Area,
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
	})
	if err != nil {
		zap.L().Warn("pipeline: row errored",
			zap.String("place_id", row.PlaceID),
			zap.String("name", row.Name),
			zap.Error(err),
		)
		result.Status = model.MatchStatusError
		result.MatchNotes = truncate(err.Error())
		return result
	}

	if !sel.Accepted {
		result.Status = model.MatchStatusNotFound
		result.MatchNotes = sel.Notes
		return result
	}

	result.Status = model.MatchStatusFound
	result.URL = sel.Scored.URL
	conf := sel.Scored.Confidence
	result.Confidence = &conf
	result.DistanceM = sel.Scored.DistanceM
	result.MatchNotes = sel.Notes
	result.Images = sel.Scored.Images
	result.OpeningHours = sel.Listing.OpeningHours
	result.CuisineType = sel.Listing.CuisineType
	result.PriceRange = sel.Listing.PriceRange
	result.Phone = sel.Listing.Phone

	zap.L().Info("pipeline: row matched",
		zap.String("place_id", row.PlaceID),
		zap.String("name", row.Name),
		zap.String("url", result.URL),
		zap.Float64("confidence", conf),
	)
	return result
}

func truncate(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return s[:maxDiagnosticLen]
}
