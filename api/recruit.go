/*
recruit.go - HTTP handlers for positions, candidates, and applications

ENDPOINTS:
  Positions:
    GET    /api/positions
    POST   /api/positions
    GET    /api/positions/{id}
    PUT    /api/positions/{id}
    PATCH  /api/positions/{id}/publish
    POST   /api/positions/{id}/ai-questions/generate

  Candidates:
    GET    /api/candidates
    POST   /api/candidates
    GET    /api/candidates/{id}

  Candidate applications:
    GET    /api/recruitment/applications
    POST   /api/recruitment/applications
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brillar/hr-portal/interview"
	"github.com/brillar/hr-portal/recruit"
)

// =============================================================================
// POSITION ENDPOINTS
// =============================================================================

// ListPositions returns open positions. ?published=true filters to
// candidate-visible ones.
func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load positions", err)
		return
	}
	positions := snap.Positions
	if r.URL.Query().Get("published") == "true" {
		var visible []recruit.Position
		for _, p := range positions {
			if p.Published() {
				visible = append(visible, p)
			}
		}
		positions = visible
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetPosition returns one position.
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load positions", err)
		return
	}
	for i := range snap.Positions {
		if snap.Positions[i].ID == chi.URLParam(r, "id") {
			writeJSON(w, http.StatusOK, snap.Positions[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "position not found", nil)
}

// CreatePosition stores a new position in draft state unless told otherwise.
func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var body recruit.Position
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	position, err := recruit.NewPosition(h.NewID(), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load positions", err)
		return
	}
	positions := append(append([]recruit.Position{}, snap.Positions...), position)
	if err := h.Cache.SyncPositions(r.Context(), positions); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save position", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: position.ID})
}

// UpdatePosition applies a partial update.
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var updates recruit.Position
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	h.mutatePosition(w, r, func(p *recruit.Position) error {
		return p.Merge(updates)
	})
}

// PublishPosition flips a position to published.
func (h *Handler) PublishPosition(w http.ResponseWriter, r *http.Request) {
	h.mutatePosition(w, r, func(p *recruit.Position) error {
		return p.Merge(recruit.Position{Status: recruit.PositionPublished})
	})
}

func (h *Handler) mutatePosition(w http.ResponseWriter, r *http.Request, mutate func(*recruit.Position) error) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load positions", err)
		return
	}

	id := chi.URLParam(r, "id")
	positions := append([]recruit.Position{}, snap.Positions...)
	found := false
	for i := range positions {
		if positions[i].ID == id {
			if err := mutate(&positions[i]); err != nil {
				writeError(w, http.StatusBadRequest, "invalid position update", err)
				return
			}
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "position not found", nil)
		return
	}

	if err := h.Cache.SyncPositions(r.Context(), positions); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save position", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GeneratePositionQuestions asks the model for written interview
// questions and stores them on the position.
// POST /api/positions/{id}/ai-questions/generate
func (h *Handler) GeneratePositionQuestions(w http.ResponseWriter, r *http.Request) {
	if h.AI == nil {
		writeError(w, http.StatusServiceUnavailable, "ai features are not configured", nil)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load positions", err)
		return
	}

	id := chi.URLParam(r, "id")
	positions := append([]recruit.Position{}, snap.Positions...)
	idx := -1
	for i := range positions {
		if positions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "position not found", nil)
		return
	}

	questions, err := interview.GenerateQuestions(r.Context(), h.AI, positions[idx].Profile())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, interview.ErrInvalidQuestionsJSON) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "question generation failed", err)
		return
	}

	if err := positions[idx].Merge(recruit.Position{Questions: questions}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to apply questions", err)
		return
	}
	if err := h.Cache.SyncPositions(r.Context(), positions); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save position", err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// =============================================================================
// CANDIDATE ENDPOINTS
// =============================================================================

// ListCandidates returns the candidate pipeline.
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Candidates)
}

// GetCandidate returns one candidate.
func (h *Handler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candidates", err)
		return
	}
	for i := range snap.Candidates {
		if snap.Candidates[i].ID == chi.URLParam(r, "id") {
			writeJSON(w, http.StatusOK, snap.Candidates[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "candidate not found", nil)
}

// CreateCandidate stores a new candidate.
func (h *Handler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var candidate recruit.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if candidate.DisplayName() == "" {
		writeError(w, http.StatusBadRequest, "candidate needs a name or email", nil)
		return
	}
	candidate.ID = h.NewID()

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candidates", err)
		return
	}
	candidates := append(append([]recruit.Candidate{}, snap.Candidates...), candidate)
	if err := h.Cache.SyncCandidates(r.Context(), candidates); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save candidate", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: candidate.ID})
}

// =============================================================================
// CANDIDATE APPLICATION ENDPOINTS
// =============================================================================

// ListRecruitApplications returns the recruitment pipeline applications.
// GET /api/recruitment/applications
func (h *Handler) ListRecruitApplications(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.RecruitApplications)
}

// CreateRecruitApplication links a candidate to a published position.
// POST /api/recruitment/applications
func (h *Handler) CreateRecruitApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.CandidateID) == "" || strings.TrimSpace(req.PositionID) == "" {
		writeError(w, http.StatusBadRequest, "candidateId and positionId are required", nil)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}

	positionOK := false
	for _, p := range snap.Positions {
		if p.ID == req.PositionID {
			positionOK = true
			break
		}
	}
	if !positionOK {
		writeError(w, http.StatusNotFound, "position not found", nil)
		return
	}

	app := recruit.NewApplication(h.NewID(), req.CandidateID, req.PositionID)
	apps := append(append([]recruit.Application{}, snap.RecruitApplications...), app)
	if err := h.Cache.SyncRecruitApplications(r.Context(), apps); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save application", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: app.ID})
}
