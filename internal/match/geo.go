package match

import (
	"math"
	"strings"
)

// earthRadiusM is the mean spherical earth radius used by the haversine
// distance.
const earthRadiusM = 6371000.0

// DistanceM returns the great-circle distance in meters between two
// coordinate pairs. Zero for identical points; symmetric in its arguments.
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// AreaMatch reports whether any token of the query's area (after the same
// normalization as venue names, tokens longer than 2 runes) appears as a
// substring of the normalized candidate address. False when either input
// is empty.
func AreaMatch(area, address string) bool {
	if area == "" || address == "" {
		return false
	}
	normArea := Normalize(area)
	normAddr := Normalize(address)
	if normArea == "" || normAddr == "" {
		return false
	}
	for _, tok := range strings.Fields(normArea) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if strings.Contains(normAddr, tok) {
			return true
		}
	}
	return false
}
