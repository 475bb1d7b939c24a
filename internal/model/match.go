package model

// MatchStatus is the terminal state of a single record's fallback lookup.
type MatchStatus string

const (
	MatchStatusFound    MatchStatus = "found"
	MatchStatusNotFound MatchStatus = "not_found"
	MatchStatusError    MatchStatus = "error"
)

// Candidate is a listing that survived page validation. Fields beyond URL
// and Name come from the page's structured listing marker.
type Candidate struct {
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// ScoredCandidate wraps a Candidate with its match evidence.
type ScoredCandidate struct {
	Candidate

	NameSimilarity float64  `json:"name_similarity"`
	DistanceM      *float64 `json:"distance_m,omitempty"`
	AreaMatch      bool     `json:"area_match"`
	Confidence     float64  `json:"confidence"`
}

// MatchResult is the outcome of matching one snapshot row. Exactly one is
// produced per input row, whatever happens during processing.
type MatchResult struct {
	PlaceID    string      `json:"google_place_id"`
	Status     MatchStatus `json:"status"`
	URL        string      `json:"url,omitempty"`
	Confidence *float64    `json:"confidence,omitempty"`
	DistanceM  *float64    `json:"distance_m,omitempty"`
	MatchNotes string      `json:"match_notes,omitempty"`
	Images     []string    `json:"images,omitempty"`

	// Fields read from the accepted listing page, used by the merge.
	OpeningHours string `json:"opening_hours,omitempty"`
	CuisineType  string `json:"cuisine_type,omitempty"`
	PriceRange   string `json:"price_range,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// CriticalValue returns the named critical field's value, or "" for a
// name outside CriticalFields.
func (m MatchResult) CriticalValue(name string) string {
	switch name {
	case "opening_hours":
		return m.OpeningHours
	case "cuisine_type":
		return m.CuisineType
	case "price_range":
		return m.PriceRange
	case "phone":
		return m.Phone
	}
	return ""
}
