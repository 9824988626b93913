// Package whs implements the World Handicap System calculations: score
// differentials, round eligibility, the best-of-recent index aggregation,
// and the course handicap projection.
package whs

import (
	"errors"
	"math"
)

// WHS constants. These are fixed by the published rules and are not
// configuration.
const (
	// SlopeBase is the neutral slope rating every differential is
	// normalized against.
	SlopeBase = 113

	// IndexScale is the bonus-for-excellence factor applied to the averaged
	// best differentials.
	IndexScale = 0.96

	// WindowSize bounds how many recent rounds feed a calculation.
	WindowSize = 20

	// DefaultPar is assumed when a caller supplies no par.
	DefaultPar = 72
)

// ErrInvalidSlope is returned when a calculation is attempted against a
// non-positive slope rating. Eligibility filtering keeps such rounds out of
// the normal flow, so hitting this means a caller skipped the filter.
var ErrInvalidSlope = errors.New("slope rating must be positive")

// Differential converts a single round into a handicap differential:
// (score - courseRating - pcc) * 113 / slope, rounded to one decimal place.
// It is deterministic and has no side effects.
func Differential(score int, courseRating float64, slopeRating int, pcc float64) (float64, error) {
	if slopeRating <= 0 {
		return 0, ErrInvalidSlope
	}
	raw := (float64(score) - courseRating - pcc) * SlopeBase / float64(slopeRating)
	return round1(raw), nil
}

// round1 rounds half away from zero to one decimal place, matching the
// published handicap tables.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
