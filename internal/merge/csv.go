package merge

import (
	"encoding/csv"
	"encoding/json"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/tablefare/enrich-cli/internal/model"
)

// csvRecord flattens a FinalRecord for the persisted dataset. List and map
// fields are stored as JSON cells, matching the upstream dataset format.
type csvRecord struct {
	PlaceID      string `csv:"google_place_id"`
	Name         string `csv:"name"`
	City         string `csv:"city"`
	Area         string `csv:"area"`
	Latitude     string `csv:"latitude"`
	Longitude    string `csv:"longitude"`
	Website      string `csv:"website"`
	OpeningHours string `csv:"opening_hours"`
	CuisineType  string `csv:"cuisine_type"`
	PriceRange   string `csv:"price_range"`
	Phone        string `csv:"phone"`

	TAURL        string `csv:"tripadvisor_url"`
	TAStatus     string `csv:"tripadvisor_status"`
	TAConfidence string `csv:"tripadvisor_confidence"`
	TADistanceM  string `csv:"tripadvisor_distance_m"`
	TANotes      string `csv:"tripadvisor_match_notes"`
	TAImages     string `csv:"tripadvisor_images"`
	Updates      string `csv:"tertiary_updates"`
}

// WriteCSV persists the merged dataset to path.
func WriteCSV(path string, records []model.FinalRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "merge: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)

	for _, rec := range records {
		row, err := toCSVRecord(rec)
		if err != nil {
			return err
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "merge: encode record %s", rec.PlaceID)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "merge: flush %s", path)
	}
	return f.Close()
}

func toCSVRecord(rec model.FinalRecord) (csvRecord, error) {
	row := csvRecord{
		PlaceID:      rec.PlaceID,
		Name:         rec.Name,
		City:         rec.City,
		Area:         rec.Area,
		Website:      rec.Website,
		OpeningHours: rec.OpeningHours,
		CuisineType:  rec.CuisineType,
		PriceRange:   rec.PriceRange,
		Phone:        rec.Phone,
		TAURL:        rec.TripadvisorURL,
		TAStatus:     string(rec.TripadvisorStatus),
		TANotes:      rec.TripadvisorMatchNotes,
	}

	row.Latitude = formatOptFloat(rec.Latitude)
	row.Longitude = formatOptFloat(rec.Longitude)
	row.TAConfidence = formatOptFloat(rec.TripadvisorConfidence)
	row.TADistanceM = formatOptFloat(rec.TripadvisorDistanceM)

	if len(rec.TripadvisorImages) > 0 {
		raw, err := json.Marshal(rec.TripadvisorImages)
		if err != nil {
			return row, eris.Wrapf(err, "merge: marshal images for %s", rec.PlaceID)
		}
		row.TAImages = string(raw)
	}
	if len(rec.TertiaryUpdates) > 0 {
		raw, err := json.Marshal(rec.TertiaryUpdates)
		if err != nil {
			return row, eris.Wrapf(err, "merge: marshal updates for %s", rec.PlaceID)
		}
		row.Updates = string(raw)
	}

	return row, nil
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	raw, _ := json.Marshal(*v)
	return string(raw)
}
