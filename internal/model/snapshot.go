package model

import "time"

// SnapshotRow is a SourceRecord reduced to the fields the fallback stage
// needs. The Existing* values are captured once at snapshot creation and
// never recomputed; the merge step reads them as the base truth.
type SnapshotRow struct {
	PlaceID   string   `json:"google_place_id"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Area      string   `json:"area,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Website   string   `json:"website,omitempty"`

	ExistingOpeningHours string `json:"existing_opening_hours,omitempty"`
	ExistingCuisineType  string `json:"existing_cuisine_type,omitempty"`
	ExistingPriceRange   string `json:"existing_price_range,omitempty"`
	ExistingPhone        string `json:"existing_phone,omitempty"`
}

// Snapshot is an immutable, content-addressed set of rows needing fallback.
// Locked is always true once stored; there is no mutation path.
type Snapshot struct {
	ID          string        `json:"id"`
	Rows        []SnapshotRow `json:"rows"`
	ContentHash string        `json:"content_hash"`
	Locked      bool          `json:"locked"`
	CreatedAt   time.Time     `json:"created_at"`
}
