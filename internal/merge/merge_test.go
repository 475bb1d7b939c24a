package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablefare/enrich-cli/internal/model"
)

func f64(v float64) *float64 { return &v }

func baseRecord(id string) model.SourceRecord {
	return model.SourceRecord{
		PlaceID: id,
		Name:    "Testaurant " + id,
		City:    "London",
	}
}

func TestMerge_FillsOnlyEmptyFields(t *testing.T) {
	rec := baseRecord("p1")
	rec.CuisineType = "Italian" // present in base: must survive
	rec.Phone = ""

	fb := model.MatchResult{
		PlaceID:      "p1",
		Status:       model.MatchStatusFound,
		URL:          "https://ta.example/Restaurant_Review-p1",
		Confidence:   f64(0.92),
		OpeningHours: "Mon-Sun 12-23",
		CuisineType:  "Indian", // must NOT overwrite
		Phone:        "+44 20 7000 0000",
	}

	out := Merge([]model.SourceRecord{rec}, []model.MatchResult{fb})
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Italian", got.CuisineType)
	assert.Equal(t, "Mon-Sun 12-23", got.OpeningHours)
	assert.Equal(t, "+44 20 7000 0000", got.Phone)
	assert.Empty(t, got.PriceRange)

	assert.Equal(t, map[string]string{
		"opening_hours": "filled_from_fallback",
		"phone":         "filled_from_fallback",
	}, got.TertiaryUpdates)
}

func TestMerge_EmptyFallbackValueLeavesFieldEmpty(t *testing.T) {
	rec := baseRecord("p1")
	fb := model.MatchResult{PlaceID: "p1", Status: model.MatchStatusFound, Phone: "+44 20 7000 0000"}

	out := Merge([]model.SourceRecord{rec}, []model.MatchResult{fb})
	require.Len(t, out, 1)
	assert.Empty(t, out[0].OpeningHours)
	assert.Equal(t, map[string]string{"phone": "filled_from_fallback"}, out[0].TertiaryUpdates)
}

func TestMerge_TrackingCopiedRegardlessOfStatus(t *testing.T) {
	rec := baseRecord("p1")
	fb := model.MatchResult{
		PlaceID:    "p1",
		Status:     model.MatchStatusNotFound,
		MatchNotes: "no candidates found",
	}

	out := Merge([]model.SourceRecord{rec}, []model.MatchResult{fb})
	require.Len(t, out, 1)
	assert.Equal(t, model.MatchStatusNotFound, out[0].TripadvisorStatus)
	assert.Equal(t, "no candidates found", out[0].TripadvisorMatchNotes)
	assert.Empty(t, out[0].TripadvisorURL)
	assert.Nil(t, out[0].TripadvisorConfidence)
	assert.Empty(t, out[0].TertiaryUpdates)
}

func TestMerge_PassthroughWithoutFallbackEntry(t *testing.T) {
	complete := baseRecord("p1")
	complete.OpeningHours = "Mon-Fri 9-17"

	out := Merge([]model.SourceRecord{complete}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, complete, out[0].SourceRecord)
	assert.Empty(t, out[0].TripadvisorStatus)
	assert.Nil(t, out[0].TertiaryUpdates)
}

func TestMerge_PreservesBaseOrderAndCount(t *testing.T) {
	base := []model.SourceRecord{baseRecord("p3"), baseRecord("p1"), baseRecord("p2")}
	fallback := []model.MatchResult{
		{PlaceID: "p1", Status: model.MatchStatusFound},
		{PlaceID: "p2", Status: model.MatchStatusError},
	}

	out := Merge(base, fallback)
	require.Len(t, out, 3)
	assert.Equal(t, "p3", out[0].PlaceID)
	assert.Equal(t, "p1", out[1].PlaceID)
	assert.Equal(t, "p2", out[2].PlaceID)
}

func TestMerge_EmptyBase(t *testing.T) {
	out := Merge(nil, []model.MatchResult{{PlaceID: "p1"}})
	assert.Empty(t, out)
}

func TestMerge_Idempotent(t *testing.T) {
	rec := baseRecord("p1")
	fb := model.MatchResult{PlaceID: "p1", Status: model.MatchStatusFound, Phone: "+44 20 7000 0000"}

	first := Merge([]model.SourceRecord{rec}, []model.MatchResult{fb})
	require.Len(t, first, 1)

	// Merging the filled record again changes nothing: the value is now
	// present in the base, so the fallback cannot overwrite it.
	second := Merge([]model.SourceRecord{first[0].SourceRecord}, []model.MatchResult{fb})
	require.Len(t, second, 1)
	assert.Equal(t, first[0].SourceRecord, second[0].SourceRecord)
	assert.Empty(t, second[0].TertiaryUpdates)
}
