// Package merge implements the fill-null join of the base dataset with
// fallback match results.
package merge

import (
	"github.com/tablefare/enrich-cli/internal/model"
)

// filledFrom is the value recorded in tertiary_updates for every field the
// merge actually changed.
const filledFrom = "filled_from_fallback"

// Merge joins base records with fallback results keyed by identifier.
// The four critical fields are filled only where the base value is empty
// and the fallback has one; a present base value always wins. Tracking
// fields are copied unconditionally from the fallback entry. Base records
// without a fallback entry pass through unchanged, tracking-free. Output
// order follows the base dataset; no record is ever added or removed.
func Merge(base []model.SourceRecord, fallback []model.MatchResult) []model.FinalRecord {
	byID := make(map[string]model.MatchResult, len(fallback))
	for _, fb := range fallback {
		byID[fb.PlaceID] = fb
	}

	out := make([]model.FinalRecord, 0, len(base))
	for _, rec := range base {
		final := model.FinalRecord{SourceRecord: rec}

		fb, ok := byID[rec.PlaceID]
		if !ok {
			out = append(out, final)
			continue
		}

		updates := make(map[string]string)
		for _, field := range model.CriticalFields {
			if rec.CriticalValue(field) != "" {
				continue
			}
			if v := fb.CriticalValue(field); v != "" {
				final.SetCriticalValue(field, v)
				updates[field] = filledFrom
			}
		}

		final.TripadvisorURL = fb.URL
		final.TripadvisorStatus = fb.Status
		final.TripadvisorConfidence = fb.Confidence
		final.TripadvisorDistanceM = fb.DistanceM
		final.TripadvisorMatchNotes = fb.MatchNotes
		final.TripadvisorImages = fb.Images
		final.TertiaryUpdates = updates

		out = append(out, final)
	}
	return out
}
