package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/fairwaylab/greenside/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	round_id         TEXT PRIMARY KEY,
	player_id        TEXT NOT NULL,
	equipment_set_id TEXT NOT NULL DEFAULT '',
	score            INTEGER NOT NULL,
	course_rating    REAL NOT NULL,
	slope_rating     INTEGER NOT NULL,
	pcc              REAL NOT NULL DEFAULT 0,
	date_played      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rounds_player_date ON rounds(player_id, date_played DESC);

CREATE TABLE IF NOT EXISTS handicap_indexes (
	subject_id        TEXT NOT NULL,
	subject_kind      TEXT NOT NULL,
	value             REAL NOT NULL,
	effective_date    INTEGER NOT NULL,
	rounds_considered INTEGER NOT NULL,
	method            TEXT NOT NULL,
	PRIMARY KEY (subject_id, subject_kind)
);
`

// SQLStore implements Store over database/sql. The shipped driver is
// modernc.org/sqlite; the queries stick to portable SQL.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a sqlite database at path and
// bootstraps the schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// sqlite allows a single writer; serialize access through one conn.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an already-open database handle. The caller owns schema
// setup in this case.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// AddRound persists a finalized round. Rounds are immutable; re-adding an
// existing round id is rejected.
func (s *SQLStore) AddRound(ctx context.Context, r model.RoundRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (round_id, player_id, equipment_set_id, score, course_rating, slope_rating, pcc, date_played)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RoundID, r.PlayerID, r.EquipmentSetID, r.Score, r.CourseRating, r.SlopeRating, r.PCC, r.DatePlayed.Unix())
	if err != nil {
		var exists int
		if qErr := s.db.QueryRowContext(ctx, `SELECT 1 FROM rounds WHERE round_id = ?`, r.RoundID).Scan(&exists); qErr == nil {
			return ErrDuplicateRound
		}
		return fmt.Errorf("insert round %s: %w", r.RoundID, err)
	}
	return nil
}

// RecentRounds returns up to limit rounds for the player, most recent
// first. A limit of 0 returns the full history.
func (s *SQLStore) RecentRounds(ctx context.Context, playerID, equipmentSetID string, limit int) ([]model.RoundRecord, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	query := `SELECT round_id, player_id, equipment_set_id, score, course_rating, slope_rating, pcc, date_played
		FROM rounds WHERE player_id = ?`
	args := []any{playerID}
	if equipmentSetID != "" {
		query += ` AND equipment_set_id = ?`
		args = append(args, equipmentSetID)
	}
	query += ` ORDER BY date_played DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds for %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []model.RoundRecord
	for rows.Next() {
		var r model.RoundRecord
		var played int64
		if err := rows.Scan(&r.RoundID, &r.PlayerID, &r.EquipmentSetID, &r.Score, &r.CourseRating, &r.SlopeRating, &r.PCC, &played); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.DatePlayed = time.Unix(played, 0).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return out, nil
}

// PutIndex stores or overwrites the handicap index for a subject.
func (s *SQLStore) PutIndex(ctx context.Context, idx model.HandicapIndex) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO handicap_indexes (subject_id, subject_kind, value, effective_date, rounds_considered, method)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (subject_id, subject_kind) DO UPDATE SET
			value = excluded.value,
			effective_date = excluded.effective_date,
			rounds_considered = excluded.rounds_considered,
			method = excluded.method`,
		idx.SubjectID, string(idx.SubjectKind), idx.Value, idx.EffectiveDate.Unix(), idx.RoundsConsidered, idx.Method)
	if err != nil {
		return fmt.Errorf("upsert index for %s: %w", idx.SubjectID, err)
	}
	return nil
}

// GetIndex returns the current index for a subject, or ErrIndexNotFound.
func (s *SQLStore) GetIndex(ctx context.Context, subjectID string, kind model.SubjectKind) (model.HandicapIndex, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT subject_id, subject_kind, value, effective_date, rounds_considered, method
		 FROM handicap_indexes WHERE subject_id = ? AND subject_kind = ?`,
		subjectID, string(kind))

	var idx model.HandicapIndex
	var kindStr string
	var effective int64
	if err := row.Scan(&idx.SubjectID, &kindStr, &idx.Value, &effective, &idx.RoundsConsidered, &idx.Method); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.HandicapIndex{}, ErrIndexNotFound
		}
		return model.HandicapIndex{}, fmt.Errorf("query index for %s: %w", subjectID, err)
	}
	idx.SubjectKind = model.SubjectKind(kindStr)
	idx.EffectiveDate = time.Unix(effective, 0).UTC()
	return idx, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
