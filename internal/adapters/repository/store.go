// Package repository defines the round-history and handicap-index store
// contract and its implementations.
package repository

import (
	"context"

	"github.com/fairwaylab/greenside/internal/domain/model"
)

// RoundSource supplies round history to the recalculation orchestrator.
type RoundSource interface {
	// RecentRounds returns up to limit rounds for the player, most recent
	// first. A limit of 0 returns the full history; the orchestrator needs
	// it because eligibility is filtered after fetching, so a raw-round cap
	// could displace older eligible rounds. A negative limit is rejected
	// with ErrInvalidLimit. A non-empty equipmentSetID narrows the history
	// to that bag.
	RecentRounds(ctx context.Context, playerID, equipmentSetID string, limit int) ([]model.RoundRecord, error)
}

// IndexWriter persists handicap index records, one logical record per
// subject, overwritten on each recalculation.
type IndexWriter interface {
	PutIndex(ctx context.Context, idx model.HandicapIndex) error
}

// IndexReader serves the current handicap index for a subject.
// Returns ErrIndexNotFound when no index has been computed yet.
type IndexReader interface {
	GetIndex(ctx context.Context, subjectID string, kind model.SubjectKind) (model.HandicapIndex, error)
}

// RoundSink accepts finalized rounds from the round-entry trigger.
type RoundSink interface {
	AddRound(ctx context.Context, r model.RoundRecord) error
}

// Store bundles everything the engine needs from its persistence
// collaborator.
type Store interface {
	RoundSource
	RoundSink
	IndexWriter
	IndexReader

	Close() error
}
