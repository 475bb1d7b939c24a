package match

import "math"

// Fixed scoring policy. These are not tunable at call time: changing them
// changes what "confidence" means across every stored result.
const (
	nameWeight     = 0.5
	areaWeight     = 0.3
	distanceWeight = 0.2

	// distanceRadiusM is the normalization radius: a candidate at 0 m
	// contributes the full distance weight, one at >= 1000 m contributes
	// nothing.
	distanceRadiusM = 1000.0
)

// Score combines name similarity, area containment and distance into a
// single confidence value in [0,1], rounded to 2 decimal places.
// A nil distance contributes zero to the score.
func Score(nameSim float64, areaMatch bool, distanceM *float64) float64 {
	score := nameSim * nameWeight
	if areaMatch {
		score += areaWeight
	}
	if distanceM != nil {
		term := 1 - *distanceM/distanceRadiusM
		if term < 0 {
			term = 0
		}
		if term > 1 {
			term = 1
		}
		score += term * distanceWeight
	}
	return math.Round(score*100) / 100
}
