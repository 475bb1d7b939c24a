// Package ingest reads restaurant datasets from CSV and XLSX files and
// validates them at the boundary, before any matching starts.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tablefare/enrich-cli/internal/model"
)

// ErrEmptyDataset is returned for an input with no data rows.
var ErrEmptyDataset = eris.New("ingest: dataset is empty")

// ReadFile dispatches on the file extension: .csv and .xlsx are supported.
func ReadFile(path string) ([]model.SourceRecord, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		return ReadCSVFile(path)
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("ingest: unsupported input format: %s", path)
	}
}

// Validate enforces the ingestion contract: a non-empty dataset where
// every row carries an identifier. Matching never sees records that fail
// here.
func Validate(records []model.SourceRecord) error {
	if len(records) == 0 {
		return ErrEmptyDataset
	}
	for i, r := range records {
		if strings.TrimSpace(r.PlaceID) == "" {
			return eris.Errorf("ingest: row %d is missing google_place_id", i+1)
		}
	}
	return nil
}

// parseRow maps a header-indexed row onto a SourceRecord. Unknown columns
// are ignored; coordinate parse failures leave the coordinate unset rather
// than failing the row.
func parseRow(header map[string]int, cells []string) model.SourceRecord {
	get := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	rec := model.SourceRecord{
		PlaceID:      get("google_place_id"),
		Name:         get("name"),
		City:         get("city"),
		Area:         get("area"),
		Website:      get("website"),
		OpeningHours: get("opening_hours"),
		CuisineType:  get("cuisine_type"),
		PriceRange:   get("price_range"),
		Phone:        get("phone"),
	}

	if lat, err := strconv.ParseFloat(get("latitude"), 64); err == nil {
		if lon, err := strconv.ParseFloat(get("longitude"), 64); err == nil {
			rec.Latitude, rec.Longitude = &lat, &lon
		}
	}
	return rec
}

func headerIndex(cells []string) map[string]int {
	idx := make(map[string]int, len(cells))
	for i, name := range cells {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}
