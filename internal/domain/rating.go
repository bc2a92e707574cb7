package domain

import (
	"math"
	"time"
)

// MaxRating is the upper bound of the community rating scale. Star UIs scale
// their input to this range before calling the service.
const MaxRating = 100

// RatingEntry records one rater's current rating for one doodle. It exists
// so a second rating from the same rater revises the aggregate instead of
// inflating it.
type RatingEntry struct {
	DoodleID  string
	RaterID   string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FoldNewRating folds a first-time rating into the running weighted average:
// rating' = round(rating * n/(n+1) + value/(n+1)). The full rating history is
// never replayed; rounding happens once per update, so long revision chains
// can drift slightly.
func FoldNewRating(rating, ratedCount, value int) (int, int) {
	n := float64(ratedCount)
	folded := math.Round(float64(rating)*n/(n+1) + float64(value)/(n+1))
	return clampRating(int(folded)), ratedCount + 1
}

// FoldRevisedRating swaps one rater's prior contribution for a new one
// without changing the count: rating' = round(rating - old/n + new/n).
func FoldRevisedRating(rating, ratedCount, oldValue, newValue int) int {
	if ratedCount <= 0 {
		return clampRating(newValue)
	}
	n := float64(ratedCount)
	folded := math.Round(float64(rating) - float64(oldValue)/n + float64(newValue)/n)
	return clampRating(int(folded))
}

// ValidRating reports whether a caller-supplied rating is on the 0..100 scale.
func ValidRating(value int) bool {
	return value >= 0 && value <= MaxRating
}

func clampRating(value int) int {
	if value > MaxRating {
		return MaxRating
	}
	if value < 0 {
		return 0
	}
	return value
}
