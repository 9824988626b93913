package whs

// Plausibility bounds for handicap-eligible rounds.
const (
	minSlopeRating = 55
	maxSlopeRating = 155

	minCourseRating = 60.0
	maxCourseRating = 80.0

	// Scores more than 10 under or 50 over par are treated as abandoned
	// rounds or data-entry errors.
	scoreUnderParLimit = 10
	scoreOverParLimit  = 50
)

// Eligible reports whether a round's data is usable for handicap purposes.
// Ineligible rounds are not errors; they are silently omitted from
// aggregation. Pass par <= 0 to assume DefaultPar.
func Eligible(score int, courseRating float64, slopeRating int, par int) bool {
	if par <= 0 {
		par = DefaultPar
	}
	if score == 0 || courseRating == 0 || slopeRating == 0 {
		return false
	}
	if score < par-scoreUnderParLimit || score > par+scoreOverParLimit {
		return false
	}
	if slopeRating < minSlopeRating || slopeRating > maxSlopeRating {
		return false
	}
	if courseRating < minCourseRating || courseRating > maxCourseRating {
		return false
	}
	return true
}
