package tripadvisor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// restaurantRecord is the subset of a schema.org listing marker the
// pipeline reads. Types that vary between string and array forms are
// decoded leniently.
type restaurantRecord struct {
	Type          flexStrings `json:"@type"`
	Name          string      `json:"name"`
	Image         flexStrings `json:"image"`
	Telephone     string      `json:"telephone"`
	PriceRange    string      `json:"priceRange"`
	ServesCuisine flexStrings `json:"servesCuisine"`
	OpeningHours  flexStrings `json:"openingHours"`
	Address       *postalAddr `json:"address"`
	Geo           *geoCoords  `json:"geo"`
}

type postalAddr struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	PostalCode      string `json:"postalCode"`
}

func (a *postalAddr) String() string {
	if a == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{a.StreetAddress, a.AddressLocality, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type geoCoords struct {
	Latitude  flexFloat `json:"latitude"`
	Longitude flexFloat `json:"longitude"`
}

// flexStrings decodes a JSON value that may be a string or a string array.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*f = many
		return nil
	}
	// Unexpected shape; ignore rather than failing the whole marker.
	*f = nil
	return nil
}

func (f flexStrings) first() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// flexFloat decodes a JSON number that may be quoted.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value, f.Set = num, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			f.Value, f.Set = parsed, true
		}
	}
	return nil
}

// restaurantTypes are the schema.org types accepted as a genuine
// restaurant listing marker.
var restaurantTypes = map[string]struct{}{
	"restaurant":        {},
	"foodestablishment": {},
}

func (r *restaurantRecord) isRestaurant() bool {
	for _, t := range r.Type {
		if _, ok := restaurantTypes[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

// findRestaurantMarker scans the page's ld+json blocks for a record whose
// type identifies a restaurant entity. Blocks may hold a single record, an
// array of records, or an @graph wrapper; malformed blocks are skipped.
func findRestaurantMarker(doc *goquery.Document) *restaurantRecord {
	var found *restaurantRecord
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		for _, rec := range decodeRecords([]byte(raw)) {
			if rec.isRestaurant() {
				found = rec
				return false
			}
		}
		return true
	})
	return found
}

func decodeRecords(raw []byte) []*restaurantRecord {
	var single restaurantRecord
	if err := json.Unmarshal(raw, &single); err == nil && len(single.Type) > 0 {
		return []*restaurantRecord{&single}
	}

	var many []*restaurantRecord
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many
	}

	var graph struct {
		Graph []*restaurantRecord `json:"@graph"`
	}
	if err := json.Unmarshal(raw, &graph); err == nil {
		return graph.Graph
	}
	return nil
}
