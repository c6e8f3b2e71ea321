package session

import "math"

// Score maps a raw correct/total ratio onto the 0–1000 reporting scale used
// by the result pages: 50% correct sits at 500 and every percentage point is
// worth 10 points, so 0% → 0 and 100% → 1000. The mapping is deliberately
// unclamped.
//
// Ties at exact .5 round away from zero (math.Round). total must be > 0;
// Start rejects empty exams so a zero total never reaches scoring.
func Score(correct, total int) int {
	percentage := float64(correct) / float64(total) * 100
	return int(math.Round(500 + (percentage-50)*10))
}
