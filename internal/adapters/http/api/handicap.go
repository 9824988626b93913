package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/fairwaylab/greenside/internal/app"
	"github.com/fairwaylab/greenside/internal/domain/model"
)

// HandicapHandler serves current handicap index records.
type HandicapHandler struct {
	deps Dependencies
}

// NewHandicapHandler creates a new handicap handler.
func NewHandicapHandler(deps Dependencies) *HandicapHandler {
	return &HandicapHandler{deps: deps}
}

// indexResponse is the read shape for handicap index queries.
type indexResponse struct {
	SubjectID        string  `json:"subject_id"`
	SubjectKind      string  `json:"subject_kind"`
	Value            float64 `json:"value"`
	EffectiveDate    string  `json:"effective_date"`
	RoundsConsidered int     `json:"rounds_considered"`
	Method           string  `json:"method"`
}

func toIndexResponse(idx model.HandicapIndex) indexResponse {
	return indexResponse{
		SubjectID:        idx.SubjectID,
		SubjectKind:      string(idx.SubjectKind),
		Value:            idx.Value,
		EffectiveDate:    idx.EffectiveDate.Format(time.RFC3339),
		RoundsConsidered: idx.RoundsConsidered,
		Method:           idx.Method,
	}
}

func (h *HandicapHandler) serveIndex(w http.ResponseWriter, r *http.Request, playerID, setID string) {
	if playerID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}
	idx, err := h.deps.Index(r.Context(), playerID, setID)
	if err != nil {
		if errors.Is(err, service.ErrNoIndex) {
			writeError(w, http.StatusNotFound, codeNoIndex, err)
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	writeJSON(w, http.StatusOK, toIndexResponse(idx))
}

// HandleGetPlayerIndex handles GET /api/v1/players/{playerID}/handicap.
func (h *HandicapHandler) HandleGetPlayerIndex(w http.ResponseWriter, r *http.Request) {
	h.serveIndex(w, r, chi.URLParam(r, "playerID"), "")
}

// HandleGetEquipmentSetIndex handles
// GET /api/v1/players/{playerID}/equipment-sets/{setID}/handicap.
func (h *HandicapHandler) HandleGetEquipmentSetIndex(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "setID")
	if setID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}
	h.serveIndex(w, r, chi.URLParam(r, "playerID"), setID)
}
