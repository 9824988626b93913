package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/fairwaylab/greenside/internal/domain/model"
)

// MemoryStore implements Store in memory. It backs tests and doubles as the
// default when no database path is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	rounds  []model.RoundRecord
	indexes map[indexKey]model.HandicapIndex
}

type indexKey struct {
	subjectID string
	kind      model.SubjectKind
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes: make(map[indexKey]model.HandicapIndex),
	}
}

// AddRound persists a finalized round, rejecting duplicate round ids.
func (s *MemoryStore) AddRound(_ context.Context, r model.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rounds {
		if existing.RoundID == r.RoundID {
			return ErrDuplicateRound
		}
	}
	s.rounds = append(s.rounds, r)
	return nil
}

// RecentRounds returns up to limit rounds for the player, most recent
// first. A limit of 0 returns the full history.
func (s *MemoryStore) RecentRounds(_ context.Context, playerID, equipmentSetID string, limit int) ([]model.RoundRecord, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.RoundRecord
	for _, r := range s.rounds {
		if r.PlayerID != playerID {
			continue
		}
		if equipmentSetID != "" && r.EquipmentSetID != equipmentSetID {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.RoundRecord) int {
		return b.DatePlayed.Compare(a.DatePlayed)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PutIndex stores or overwrites the handicap index for a subject.
func (s *MemoryStore) PutIndex(_ context.Context, idx model.HandicapIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[indexKey{idx.SubjectID, idx.SubjectKind}] = idx
	return nil
}

// GetIndex returns the current index for a subject, or ErrIndexNotFound.
func (s *MemoryStore) GetIndex(_ context.Context, subjectID string, kind model.SubjectKind) (model.HandicapIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[indexKey{subjectID, kind}]
	if !ok {
		return model.HandicapIndex{}, ErrIndexNotFound
	}
	return idx, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
