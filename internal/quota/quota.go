// Package quota derives the advisory daily send ceiling from a channel's
// trust score. Authoritative rate enforcement lives in the dispatch engine.
package quota

import "math"

// DailyLimit maps a trust score to the daily message ceiling. The score is
// clamped into [0,100] and non-finite input is treated as 0.
func DailyLimit(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if score >= 70 {
		return 100
	}
	return 50
}
