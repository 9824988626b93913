package whs

import (
	"math"

	"github.com/fairwaylab/greenside/internal/domain/model"
)

// Project derives the course handicap and expected gross score for a
// handicap index on a specific course/tee combination:
//
//	courseHandicap = round(index * slope/113 + (rating - par))
//	expectedScore  = par + courseHandicap
//
// This is the inverse direction of the differential scaling and must stay
// consistent with it. Pass par <= 0 to assume DefaultPar. Callers must hold
// a computed index; projecting an unavailable one is a caller bug, not
// something this function can detect.
func Project(index float64, courseRating float64, slopeRating int, par int) (model.CourseProjection, error) {
	if slopeRating <= 0 {
		return model.CourseProjection{}, ErrInvalidSlope
	}
	if par <= 0 {
		par = DefaultPar
	}
	ch := int(math.Round(index*float64(slopeRating)/SlopeBase + (courseRating - float64(par))))
	return model.CourseProjection{
		CourseHandicap: ch,
		ExpectedScore:  par + ch,
	}, nil
}
