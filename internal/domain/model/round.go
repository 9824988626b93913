// Package model contains domain models passed between layers.
package model

import "time"

// SubjectKind distinguishes the two targets a handicap index can attach to.
type SubjectKind string

const (
	// SubjectPlayer is the player-level handicap record.
	SubjectPlayer SubjectKind = "player"
	// SubjectEquipmentSet is the per-bag handicap record.
	SubjectEquipmentSet SubjectKind = "equipmentSet"
)

// RoundRecord is a finalized round as supplied by the round-entry subsystem.
// The engine only reads these; it never mutates or deletes them.
type RoundRecord struct {
	RoundID        string    // unique id, minted at finalization
	PlayerID       string    // owning player
	EquipmentSetID string    // optional bag scope; empty means unscoped
	Score          int       // gross strokes
	CourseRating   float64   // rated expected score for a scratch golfer
	SlopeRating    int       // relative difficulty for a bogey golfer, 55..155
	PCC            float64   // playing conditions adjustment, usually 0
	DatePlayed     time.Time // when the round was played
}

// Differential is a single round's score normalized against course difficulty.
// Derived on demand from a RoundRecord; never persisted on its own.
type Differential struct {
	SourceRoundID  string
	EquipmentSetID string
	Value          float64 // rounded to one decimal place
	DatePlayed     time.Time
}

// HandicapIndex is the rolling ability statistic for a subject. One logical
// record per subject, overwritten on each recalculation.
type HandicapIndex struct {
	SubjectID        string
	SubjectKind      SubjectKind
	Value            float64 // one decimal place, never negative
	EffectiveDate    time.Time
	RoundsConsidered int
	Method           string // always "WHS"
}

// CourseProjection is the per-request derivation of an index onto a specific
// course/tee combination. Never persisted.
type CourseProjection struct {
	CourseHandicap int `json:"course_handicap"`
	ExpectedScore  int `json:"expected_score"`
}

// RecalcJob asks the worker pool to rebuild one subject's handicap index.
type RecalcJob struct {
	PlayerID       string
	EquipmentSetID string // empty for the player-level index
	RequestedAt    time.Time
}

// SubjectID returns the identifier of the record the recalculation targets.
func (j RecalcJob) SubjectID() string {
	if j.EquipmentSetID != "" {
		return j.EquipmentSetID
	}
	return j.PlayerID
}

// SubjectKind returns which kind of record the recalculation targets.
func (j RecalcJob) SubjectKind() SubjectKind {
	if j.EquipmentSetID != "" {
		return SubjectEquipmentSet
	}
	return SubjectPlayer
}

// CoalesceKey identifies the pending-work slot for this job so that duplicate
// recalculations for the same subject can be collapsed while one is queued.
func (j RecalcJob) CoalesceKey() string {
	return string(j.SubjectKind()) + ":" + j.SubjectID()
}
