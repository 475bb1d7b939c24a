package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceM_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, DistanceM(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestDistanceM_Symmetric(t *testing.T) {
	d1 := DistanceM(51.5074, -0.1278, 51.5155, -0.1410)
	d2 := DistanceM(51.5155, -0.1410, 51.5074, -0.1278)
	assert.InDelta(t, d1, d2, 1e-6)
}

func TestDistanceM_KnownDistance(t *testing.T) {
	// Trafalgar Square to St Paul's Cathedral, roughly 2.3 km.
	d := DistanceM(51.5080, -0.1281, 51.5138, -0.0984)
	assert.InDelta(t, 2160, d, 150)
}

func TestDistanceM_ShortRange(t *testing.T) {
	// ~111 m per 0.001 degrees of latitude.
	d := DistanceM(51.5000, -0.1000, 51.5010, -0.1000)
	assert.InDelta(t, 111, d, 2)
}

func TestAreaMatch(t *testing.T) {
	tests := []struct {
		name    string
		area    string
		address string
		want    bool
	}{
		{"token in address", "Soho", "12 Greek Street, Soho, London W1D 4DL", true},
		{"case insensitive", "SOHO", "12 greek street, soho", true},
		{"multi token area, one hit", "Covent Garden", "Garden Walk, EC2A", true},
		{"no hit", "Shoreditch", "12 Greek Street, Soho, London", false},
		{"short tokens skipped", "W1", "W1 postcode area, London", false},
		{"empty area", "", "12 Greek Street", false},
		{"empty address", "Soho", "", false},
		{"diacritics folded", "São Paulo", "Rua Sao Bento 91", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AreaMatch(tt.area, tt.address))
		})
	}
}
