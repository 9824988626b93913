// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairwaylab/greenside/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// RecordRound persists a finalized round and triggers recalculation.
	RecordRound(ctx context.Context, r model.RoundRecord) error

	// Index returns the current handicap index for a subject.
	Index(ctx context.Context, playerID, equipmentSetID string) (model.HandicapIndex, error)

	// Projection derives a course handicap for a subject on a course/tee.
	Projection(ctx context.Context, playerID, equipmentSetID string, courseRating float64, slopeRating, par int) (model.CourseProjection, error)
}

// Server wires HTTP routes for the handicap API.
type Server struct {
	roundsHandler     *RoundsHandler
	handicapHandler   *HandicapHandler
	projectionHandler *ProjectionHandler
	healthHandler     *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		roundsHandler:     NewRoundsHandler(deps),
		handicapHandler:   NewHandicapHandler(deps),
		projectionHandler: NewProjectionHandler(deps),
		healthHandler:     NewHealthHandler(),
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Method(http.MethodGet, "/metrics", s.healthHandler.MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.With(Metrics("rounds")).Post("/rounds", s.roundsHandler.HandlePostRound)
			r.With(Metrics("handicap")).Get("/handicap", s.handicapHandler.HandleGetPlayerIndex)
			r.With(Metrics("course_handicap")).Get("/course-handicap", s.projectionHandler.HandleGetProjection)
			r.With(Metrics("handicap")).Get("/equipment-sets/{setID}/handicap", s.handicapHandler.HandleGetEquipmentSetIndex)
		})
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
