package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fairwaylab/greenside/internal/adapters/repository"
	"github.com/fairwaylab/greenside/internal/domain/model"
)

// RoundsHandler accepts finalized rounds, the trigger for handicap
// recalculation.
type RoundsHandler struct {
	deps Dependencies
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps Dependencies) *RoundsHandler {
	return &RoundsHandler{deps: deps}
}

// roundRequest mirrors the JSON body of POST /players/{playerID}/rounds.
type roundRequest struct {
	RoundID        string  `json:"round_id,omitempty"`
	EquipmentSetID string  `json:"equipment_set_id,omitempty"`
	Score          int     `json:"score"`
	CourseRating   float64 `json:"course_rating"`
	SlopeRating    int     `json:"slope_rating"`
	PCC            float64 `json:"pcc,omitempty"`
	DatePlayed     string  `json:"date_played"`
}

func (r roundRequest) validate() error {
	switch {
	case r.Score <= 0:
		return errors.New("missing or invalid score")
	case r.CourseRating <= 0:
		return errors.New("missing or invalid course_rating")
	case r.SlopeRating <= 0:
		return errors.New("missing or invalid slope_rating")
	case strings.TrimSpace(r.DatePlayed) == "":
		return errors.New("missing date_played")
	}
	if _, err := time.Parse(time.RFC3339, r.DatePlayed); err != nil {
		return errors.New("invalid date_played; must be RFC3339")
	}
	return nil
}

type roundAck struct {
	RoundID string `json:"round_id"`
	Status  string `json:"status"`
}

// HandlePostRound handles POST /api/v1/players/{playerID}/rounds.
// It responds 202: the round is durable, the recalculation it triggers is
// best-effort and asynchronous.
func (h *RoundsHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}

	var req roundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	roundID := req.RoundID
	if roundID == "" {
		roundID = uuid.NewString()
	}
	played, _ := time.Parse(time.RFC3339, req.DatePlayed)

	round := model.RoundRecord{
		RoundID:        roundID,
		PlayerID:       playerID,
		EquipmentSetID: req.EquipmentSetID,
		Score:          req.Score,
		CourseRating:   req.CourseRating,
		SlopeRating:    req.SlopeRating,
		PCC:            req.PCC,
		DatePlayed:     played.UTC(),
	}
	if err := h.deps.RecordRound(r.Context(), round); err != nil {
		if errors.Is(err, repository.ErrDuplicateRound) {
			writeError(w, http.StatusConflict, codeConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	writeJSON(w, http.StatusAccepted, roundAck{RoundID: roundID, Status: "accepted"})
}
