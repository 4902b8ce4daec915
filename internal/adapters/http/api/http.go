// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/review"
	"github.com/telcobench/transit/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest opens a case for a new submission bundle and validates it.
	Ingest(ctx context.Context, b model.Bundle) (types.CaseView, error)

	// Revise pushes a revised bundle for a case in needs_work.
	Revise(ctx context.Context, caseID string, b model.Bundle) (types.CaseView, error)

	// Reviewer decisions.
	Approve(ctx context.Context, caseID string) (types.CaseView, error)
	RequestChanges(ctx context.Context, caseID string, reasons []string) (types.CaseView, error)
	Reject(ctx context.Context, caseID, reason string) (types.CaseView, error)

	// Read operations.
	Case(ctx context.Context, caseID string) (types.CaseView, error)
	Cases(ctx context.Context) []types.CaseView
	Verdict(ctx context.Context, caseID string) (model.Verdict, bool, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	casesHandler       *CasesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps),
		casesHandler:       NewCasesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("/cases", MetricsMiddleware(s.casesHandler.HandleListCases, "cases"))
	mux.HandleFunc("/cases/", MetricsMiddleware(s.casesHandler.HandleCase, "cases"))
}

// submissionRequest mirrors the wire schema for submission bundles.
type submissionRequest struct {
	Model            string                     `json:"model"`
	Date             string                     `json:"date"`
	BenchmarkVersion string                     `json:"benchmark_version"`
	Scores           map[string]model.ScoreCell `json:"scores"`
	Trajectories     json.RawMessage            `json:"trajectories"`
}

// bundle converts the request to its domain form. Content problems beyond
// basic envelope shape are the validators' job, not the transport's.
func (req submissionRequest) bundle() model.Bundle {
	return model.Bundle{
		ModelIdentifier:  req.Model,
		Scores:           req.Scores,
		SubmittedAt:      req.Date,
		BenchmarkVersion: req.BenchmarkVersion,
		Trajectories:     req.Trajectories,
	}
}

func (req submissionRequest) validate() error {
	if strings.TrimSpace(req.Model) == "" {
		return errors.New("missing model")
	}
	if strings.TrimSpace(req.Date) == "" {
		return errors.New("missing date")
	}
	if _, err := time.Parse(model.DateLayout, req.Date); err != nil {
		return errors.New("invalid date; must be ISO 8601 day precision")
	}
	return nil
}

// decisionRequest carries reviewer feedback for request-changes and reject.
type decisionRequest struct {
	Reason  string   `json:"reason,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
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

// writeDomainError translates domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrCaseNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, review.ErrInvalidTransition), errors.Is(err, review.ErrWrongActor):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
