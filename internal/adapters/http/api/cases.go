package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/telcobench/transit/internal/domain/model"
	"github.com/telcobench/transit/internal/domain/types"
)

// CasesHandler handles review-case requests.
type CasesHandler struct {
	deps Dependencies
}

// NewCasesHandler creates a new cases handler.
func NewCasesHandler(deps Dependencies) *CasesHandler {
	return &CasesHandler{deps: deps}
}

// caseResponse is the detailed view of one case, including the latest
// validation verdict when one exists.
type caseResponse struct {
	types.CaseView
	Verdict *model.Verdict `json:"verdict,omitempty"`
}

// HandleListCases handles GET /cases requests.
func (h *CasesHandler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Cases(r.Context()))
}

// HandleCase routes /cases/{id} and the reviewer actions
// /cases/{id}/{approve|request-changes|reject|revise}.
func (h *CasesHandler) HandleCase(w http.ResponseWriter, r *http.Request) {
	const op = "api.case"

	caseID, action := splitCasePath(r.URL.Path)
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch action {
	case "":
		h.handleGetCase(w, r, caseID)
	case "revise":
		h.handleRevise(w, r, caseID)
	case "approve":
		h.handleApprove(w, r, caseID)
	case "request-changes":
		h.handleRequestChanges(w, r, caseID)
	case "reject":
		h.handleReject(w, r, caseID)
	default:
		http.NotFound(w, r)
	}
}

func (h *CasesHandler) handleGetCase(w http.ResponseWriter, r *http.Request, caseID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	view, err := h.deps.Case(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := caseResponse{CaseView: view}
	if verdict, ok, err := h.deps.Verdict(r.Context(), caseID); err == nil && ok {
		resp.Verdict = &verdict
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CasesHandler) handleRevise(w http.ResponseWriter, r *http.Request, caseID string) {
	const op = "api.revise_case"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Revise(r.Context(), caseID, req.bundle())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CasesHandler) handleApprove(w http.ResponseWriter, r *http.Request, caseID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	view, err := h.deps.Approve(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CasesHandler) handleRequestChanges(w http.ResponseWriter, r *http.Request, caseID string) {
	const op = "api.request_changes"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	reasons := req.Reasons
	if len(reasons) == 0 && req.Reason != "" {
		reasons = []string{req.Reason}
	}
	if len(reasons) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.RequestChanges(r.Context(), caseID, reasons)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CasesHandler) handleReject(w http.ResponseWriter, r *http.Request, caseID string) {
	const op = "api.reject_case"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Reject(r.Context(), caseID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// splitCasePath extracts the case id and optional action from a
// /cases/{id}[/{action}] path.
func splitCasePath(path string) (caseID, action string) {
	rest := strings.TrimPrefix(path, "/cases/")
	parts := strings.SplitN(rest, "/", 2)
	caseID = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return caseID, action
}
