package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablefare/enrich-cli/internal/model"
)

const sampleCSV = `google_place_id,name,city,area,latitude,longitude,website,opening_hours,cuisine_type,price_range,phone
p1,Dishoom,London,Covent Garden,51.5129,-0.1265,https://dishoom.example,,Indian,,
p2,Padella,London,Borough,,,,"Mon-Sun 12-22",Italian,££,+44 20 7000 0000
`

func TestReadCSVString(t *testing.T) {
	records, err := ReadCSVString(sampleCSV)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r1 := records[0]
	assert.Equal(t, "p1", r1.PlaceID)
	assert.Equal(t, "Dishoom", r1.Name)
	assert.Equal(t, "Covent Garden", r1.Area)
	require.NotNil(t, r1.Latitude)
	assert.Equal(t, 51.5129, *r1.Latitude)
	require.NotNil(t, r1.Longitude)
	assert.Equal(t, -0.1265, *r1.Longitude)
	assert.Empty(t, r1.OpeningHours)
	assert.Equal(t, "Indian", r1.CuisineType)
	assert.True(t, r1.MissingCritical())

	r2 := records[1]
	assert.Equal(t, "p2", r2.PlaceID)
	assert.Nil(t, r2.Latitude)
	assert.Nil(t, r2.Longitude)
	assert.Equal(t, "Mon-Sun 12-22", r2.OpeningHours)
	assert.False(t, r2.MissingCritical())
}

func TestReadCSVString_HeaderOnly(t *testing.T) {
	records, err := ReadCSVString("google_place_id,name,city\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadCSVString_Empty(t *testing.T) {
	_, err := ReadCSVString("")
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	records, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadFile_DispatchesByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.CSV")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	_, err := ReadFile("data.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		records []model.SourceRecord
		wantErr string
	}{
		{
			name:    "empty dataset",
			records: nil,
			wantErr: "dataset is empty",
		},
		{
			name: "missing identifier",
			records: []model.SourceRecord{
				{PlaceID: "p1", Name: "A", City: "London"},
				{PlaceID: "  ", Name: "B", City: "London"},
			},
			wantErr: "row 2 is missing google_place_id",
		},
		{
			name: "valid",
			records: []model.SourceRecord{
				{PlaceID: "p1", Name: "A", City: "London"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.records)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
