package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/tablefare/enrich-cli/internal/model"
)

// csvRow mirrors the upstream dataset header. Coordinates come in as
// strings so blank cells don't fail decoding.
type csvRow struct {
	PlaceID      string `csv:"google_place_id"`
	Name         string `csv:"name"`
	City         string `csv:"city"`
	Area         string `csv:"area,omitempty"`
	Latitude     string `csv:"latitude,omitempty"`
	Longitude    string `csv:"longitude,omitempty"`
	Website      string `csv:"website,omitempty"`
	OpeningHours string `csv:"opening_hours,omitempty"`
	CuisineType  string `csv:"cuisine_type,omitempty"`
	PriceRange   string `csv:"price_range,omitempty"`
	Phone        string `csv:"phone,omitempty"`
}

// ReadCSV decodes a restaurant dataset from r.
func ReadCSV(r io.Reader) ([]model.SourceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, eris.Wrap(err, "ingest: read csv header")
	}

	var records []model.SourceRecord
	for {
		var row csvRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "ingest: decode csv row")
		}
		records = append(records, rowToRecord(row))
	}
	return records, nil
}

// ReadCSVFile decodes a restaurant dataset from a file on disk.
func ReadCSVFile(path string) ([]model.SourceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ReadCSVString decodes a dataset submitted inline, e.g. the csv_data
// field of a snapshot request.
func ReadCSVString(data string) ([]model.SourceRecord, error) {
	return ReadCSV(strings.NewReader(data))
}

func rowToRecord(row csvRow) model.SourceRecord {
	header := map[string]int{
		"google_place_id": 0, "name": 1, "city": 2, "area": 3,
		"latitude": 4, "longitude": 5, "website": 6,
		"opening_hours": 7, "cuisine_type": 8, "price_range": 9, "phone": 10,
	}
	cells := []string{
		row.PlaceID, row.Name, row.City, row.Area,
		row.Latitude, row.Longitude, row.Website,
		row.OpeningHours, row.CuisineType, row.PriceRange, row.Phone,
	}
	return parseRow(header, cells)
}
