package whs

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/fairwaylab/greenside/internal/domain/model"
)

// Minimum rounds before an official index exists.
const minRoundsForIndex = 3

// Status tags a calculation result so callers can tell "no official index
// yet" apart from a real index of 0.0.
type Status string

const (
	// StatusComputed means Index holds an official handicap index.
	StatusComputed Status = "computed"
	// StatusUnavailable means too few eligible rounds exist for an index.
	StatusUnavailable Status = "unavailable"
)

// Result is the outcome of one index aggregation.
type Result struct {
	Status        Status
	Index         float64 // one decimal place, >= 0; meaningless unless Status is StatusComputed
	Used          []model.Differential
	TotalRounds   int // rounds in the window, after the 20-round cap
	EffectiveDate time.Time
}

// Computed reports whether the result carries an official index.
func (r Result) Computed() bool {
	return r.Status == StatusComputed
}

// CalculateIndex applies the WHS selection rule to a set of eligible
// differentials: keep the most recent WindowSize rounds, average the best k
// of them per the selection table, scale by IndexScale, and floor at zero.
// Input order does not matter. asOf stamps the result's effective date.
func CalculateIndex(diffs []model.Differential, asOf time.Time) Result {
	window := make([]model.Differential, len(diffs))
	copy(window, diffs)

	// Most recent first, then cap the window.
	slices.SortFunc(window, func(a, b model.Differential) int {
		return b.DatePlayed.Compare(a.DatePlayed)
	})
	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	n := len(window)
	k := selectionSize(n)
	if k == 0 {
		return Result{
			Status:        StatusUnavailable,
			TotalRounds:   n,
			EffectiveDate: asOf,
		}
	}

	// Best value first; ties go to the more recent round so selection is
	// deterministic.
	slices.SortFunc(window, func(a, b model.Differential) int {
		if c := cmp.Compare(a.Value, b.Value); c != 0 {
			return c
		}
		return b.DatePlayed.Compare(a.DatePlayed)
	})
	used := window[:k]

	var sum float64
	for _, d := range used {
		sum += d.Value
	}
	index := math.Max(0, round1(sum/float64(k)*IndexScale))

	return Result{
		Status:        StatusComputed,
		Index:         index,
		Used:          used,
		TotalRounds:   n,
		EffectiveDate: asOf,
	}
}

// selectionSize returns how many of the best differentials are averaged for
// a window of n rounds, or 0 when n is too small for an official index.
//
// The sparse tiers are a simplification of the official per-n WHS table;
// they are kept as-is for parity with the established behavior.
func selectionSize(n int) int {
	switch {
	case n >= WindowSize:
		return 8
	case n >= 5:
		return max(1, n*4/10)
	case n >= minRoundsForIndex:
		return 1
	default:
		return 0
	}
}
