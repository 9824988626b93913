package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	service "github.com/fairwaylab/greenside/internal/app"
)

// ProjectionHandler serves on-demand course handicap derivations.
type ProjectionHandler struct {
	deps Dependencies
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(deps Dependencies) *ProjectionHandler {
	return &ProjectionHandler{deps: deps}
}

// HandleGetProjection handles
// GET /api/v1/players/{playerID}/course-handicap?rating=&slope=&par=&equipment_set=.
// par and equipment_set are optional.
func (h *ProjectionHandler) HandleGetProjection(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}

	q := r.URL.Query()
	rating, err := strconv.ParseFloat(q.Get("rating"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("invalid rating: %w", err))
		return
	}
	slope, err := strconv.Atoi(q.Get("slope"))
	if err != nil || slope <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("invalid slope"))
		return
	}
	par := 0
	if raw := q.Get("par"); raw != "" {
		par, err = strconv.Atoi(raw)
		if err != nil || par <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("invalid par"))
			return
		}
	}

	proj, err := h.deps.Projection(r.Context(), playerID, q.Get("equipment_set"), rating, slope, par)
	if err != nil {
		if errors.Is(err, service.ErrNoIndex) {
			writeError(w, http.StatusNotFound, codeNoIndex, err)
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}
