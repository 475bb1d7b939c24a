package model

// Listing is a validated detail page: the candidate identity plus whatever
// critical-field values could be read from the page. Only ever produced
// for pages that passed structured-marker validation.
type Listing struct {
	Candidate

	OpeningHours string `json:"opening_hours,omitempty"`
	CuisineType  string `json:"cuisine_type,omitempty"`
	PriceRange   string `json:"price_range,omitempty"`
	Phone        string `json:"phone,omitempty"`
}
