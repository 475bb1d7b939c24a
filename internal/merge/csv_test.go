package merge

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablefare/enrich-cli/internal/model"
)

func TestWriteCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.csv")

	rec := model.FinalRecord{
		SourceRecord: model.SourceRecord{
			PlaceID:      "p1",
			Name:         "Testaurant",
			City:         "London",
			Area:         "Soho",
			Latitude:     f64(51.5129),
			Longitude:    f64(-0.1265),
			OpeningHours: "Mon-Sun 12-23",
			CuisineType:  "Indian",
			PriceRange:   "££",
			Phone:        "+44 20 7000 0000",
		},
		TripadvisorURL:        "https://ta.example/Restaurant_Review-p1",
		TripadvisorStatus:     model.MatchStatusFound,
		TripadvisorConfidence: f64(0.92),
		TripadvisorDistanceM:  f64(41),
		TripadvisorMatchNotes: "name similarity 1.00; area match; distance 41m",
		TripadvisorImages:     []string{"https://img.example/1.jpg"},
		TertiaryUpdates:       map[string]string{"opening_hours": "filled_from_fallback"},
	}

	require.NoError(t, WriteCSV(path, []model.FinalRecord{rec}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + row

	header := rows[0]
	assert.Equal(t, "google_place_id", header[0])
	assert.Contains(t, header, "tripadvisor_status")
	assert.Contains(t, header, "tertiary_updates")

	byCol := map[string]string{}
	for i, col := range header {
		byCol[col] = rows[1][i]
	}
	assert.Equal(t, "p1", byCol["google_place_id"])
	assert.Equal(t, "51.5129", byCol["latitude"])
	assert.Equal(t, "found", byCol["tripadvisor_status"])
	assert.Equal(t, "0.92", byCol["tripadvisor_confidence"])
	assert.Contains(t, byCol["tripadvisor_images"], "img.example/1.jpg")
	assert.Contains(t, byCol["tertiary_updates"], `"opening_hours":"filled_from_fallback"`)
}

func TestWriteCSV_EmptyOptionalCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.csv")

	rec := model.FinalRecord{
		SourceRecord: model.SourceRecord{PlaceID: "p1", Name: "Testaurant", City: "London"},
	}
	require.NoError(t, WriteCSV(path, []model.FinalRecord{rec}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	header := strings.Split(lines[0], ",")
	cells, err := csv.NewReader(strings.NewReader(lines[1])).Read()
	require.NoError(t, err)
	require.Len(t, cells, len(header))

	byCol := map[string]string{}
	for i, col := range header {
		byCol[col] = cells[i]
	}
	assert.Empty(t, byCol["latitude"])
	assert.Empty(t, byCol["tripadvisor_confidence"])
	assert.Empty(t, byCol["tripadvisor_images"])
	assert.Empty(t, byCol["tertiary_updates"])
}

func TestWriteCSV_EmptyDatasetStillWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.csv")
	require.NoError(t, WriteCSV(path, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
