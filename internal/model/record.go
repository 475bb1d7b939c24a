package model

// CriticalFields are the four fields the fallback stage exists to fill.
// A record with all four present never enters a snapshot.
var CriticalFields = []string{"opening_hours", "cuisine_type", "price_range", "phone"}

// SourceRecord is a restaurant row produced by the primary scraping stage.
// PlaceID is the opaque identifier, unique per restaurant.
type SourceRecord struct {
	PlaceID      string   `json:"google_place_id" csv:"google_place_id"`
	Name         string   `json:"name" csv:"name"`
	City         string   `json:"city" csv:"city"`
	Area         string   `json:"area,omitempty" csv:"area,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty" csv:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty" csv:"longitude,omitempty"`
	Website      string   `json:"website,omitempty" csv:"website,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty" csv:"opening_hours,omitempty"`
	CuisineType  string   `json:"cuisine_type,omitempty" csv:"cuisine_type,omitempty"`
	PriceRange   string   `json:"price_range,omitempty" csv:"price_range,omitempty"`
	Phone        string   `json:"phone,omitempty" csv:"phone,omitempty"`
}

// CriticalValue returns the named critical field's value, or "" for a
// name outside CriticalFields.
func (r SourceRecord) CriticalValue(name string) string {
	switch name {
	case "opening_hours":
		return r.OpeningHours
	case "cuisine_type":
		return r.CuisineType
	case "price_range":
		return r.PriceRange
	case "phone":
		return r.Phone
	}
	return ""
}

// SetCriticalValue sets the named critical field; names outside
// CriticalFields are ignored.
func (r *SourceRecord) SetCriticalValue(name, value string) {
	switch name {
	case "opening_hours":
		r.OpeningHours = value
	case "cuisine_type":
		r.CuisineType = value
	case "price_range":
		r.PriceRange = value
	case "phone":
		r.Phone = value
	}
}

// MissingCritical reports whether at least one critical field is empty.
func (r SourceRecord) MissingCritical() bool {
	for _, name := range CriticalFields {
		if r.CriticalValue(name) == "" {
			return true
		}
	}
	return false
}

// FinalRecord is a SourceRecord after the fill-null merge, carrying the
// tracking fields downstream consumers branch on.
type FinalRecord struct {
	SourceRecord

	TripadvisorURL        string            `json:"tripadvisor_url,omitempty"`
	TripadvisorStatus     MatchStatus       `json:"tripadvisor_status,omitempty"`
	TripadvisorConfidence *float64          `json:"tripadvisor_confidence,omitempty"`
	TripadvisorDistanceM  *float64          `json:"tripadvisor_distance_m,omitempty"`
	TripadvisorMatchNotes string            `json:"tripadvisor_match_notes,omitempty"`
	TripadvisorImages     []string          `json:"tripadvisor_images,omitempty"`
	TertiaryUpdates       map[string]string `json:"tertiary_updates,omitempty"`
}
