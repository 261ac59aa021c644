/*
interview.go - HTTP handlers for AI interview sessions

Session and result documents bypass the snapshot cache: they are written
on every candidate turn and read by exactly one session at a time, so
caching them whole-collection would only add staleness.

ENDPOINTS:
  HR side:
    POST /api/ai-interview/sessions            Create session for an application
    GET  /api/ai-interview/results/{applicationId}

  Public side (token URLs, no portal auth):
    GET  /api/public/interview/{token}
    POST /api/public/interview/{token}/answers
    GET  /api/public/interview/{token}/voice/config
    POST /api/public/interview/{token}/voice/transcript
    POST /api/public/interview/{token}/voice/complete
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brillar/hr-portal/interview"
	"github.com/brillar/hr-portal/recruit"
	"github.com/brillar/hr-portal/store"
)

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

func (h *Handler) loadSessions(ctx context.Context) ([]interview.Session, error) {
	docs, err := h.Cache.Docs().FindAll(ctx, store.ColInterviewSessions)
	if err != nil {
		return nil, err
	}
	return store.DecodeAll[interview.Session](docs)
}

func (h *Handler) saveSession(ctx context.Context, session *interview.Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return h.Cache.Docs().UpsertMany(ctx, store.ColInterviewSessions,
		[]store.Document{{ID: session.ID, Body: body}})
}

func (h *Handler) findSessionByToken(ctx context.Context, token string) (*interview.Session, error) {
	sessions, err := h.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Token == token {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

func (h *Handler) saveResult(ctx context.Context, result interview.Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return h.Cache.Docs().UpsertMany(ctx, store.ColInterviewResults,
		[]store.Document{{ID: result.SessionID, Body: body}})
}

// =============================================================================
// HR ENDPOINTS
// =============================================================================

// CreateInterviewSession creates a session for a recruitment application
// and links the application to it.
// POST /api/ai-interview/sessions
func (h *Handler) CreateInterviewSession(w http.ResponseWriter, r *http.Request) {
	var req CreateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ApplicationID) == "" {
		writeError(w, http.StatusBadRequest, "applicationId is required", nil)
		return
	}

	mode := interview.ModeText
	if strings.EqualFold(req.Mode, string(interview.ModeVoice)) {
		mode = interview.ModeVoice
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}

	apps := append([]recruit.Application{}, snap.RecruitApplications...)
	idx := -1
	for i := range apps {
		if apps[i].ID == req.ApplicationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "application not found", nil)
		return
	}

	var position *recruit.Position
	for i := range snap.Positions {
		if snap.Positions[i].ID == apps[idx].PositionID {
			position = &snap.Positions[i]
			break
		}
	}
	if position == nil {
		writeError(w, http.StatusConflict, "application has no position", nil)
		return
	}
	if len(position.Questions) == 0 {
		writeError(w, http.StatusConflict, "position has no interview questions", nil)
		return
	}

	session := interview.Session{
		ID:            h.NewID(),
		Token:         h.NewID(),
		CandidateID:   apps[idx].CandidateID,
		PositionID:    position.ID,
		ApplicationID: apps[idx].ID,
		Mode:          mode,
		Status:        interview.StatusPending,
		PositionTitle: position.Title,
		Questions:     position.Questions,
		CreatedAt:     time.Now(),
	}
	if err := h.saveSession(r.Context(), &session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}

	apps[idx].AttachInterview(session.ID, session.Token)
	if err := h.Cache.SyncRecruitApplications(r.Context(), apps); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save application", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateInterviewResponse{
		SessionID: session.ID,
		Token:     session.Token,
		Mode:      string(session.Mode),
	})
}

// GetInterviewResult returns the stored result for an application.
// GET /api/ai-interview/results/{applicationId}
func (h *Handler) GetInterviewResult(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Cache.Docs().FindAll(r.Context(), store.ColInterviewResults)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load results", err)
		return
	}
	results, err := store.DecodeAll[interview.Result](docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load results", err)
		return
	}
	applicationID := chi.URLParam(r, "applicationId")
	for i := range results {
		if results[i].ApplicationID == applicationID {
			writeJSON(w, http.StatusOK, results[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "result not found", nil)
}

// =============================================================================
// PUBLIC ENDPOINTS (token URLs)
// =============================================================================

func (h *Handler) publicSession(w http.ResponseWriter, r *http.Request) *interview.Session {
	token := chi.URLParam(r, "token")
	session, err := h.findSessionByToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session", err)
		return nil
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "interview not found", nil)
		return nil
	}
	return session
}

// GetPublicSession returns the candidate-facing session view.
// GET /api/public/interview/{token}
func (h *Handler) GetPublicSession(w http.ResponseWriter, r *http.Request) {
	session := h.publicSession(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, PublicSessionResponse{
		Token:         session.Token,
		Mode:          string(session.Mode),
		Status:        session.Status,
		PositionTitle: session.PositionTitle,
		Questions:     session.Questions,
	})
}

// SubmitAnswers stores the written answers and completes a text session.
// Every question must be answered.
// POST /api/public/interview/{token}/answers
func (h *Handler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	session := h.publicSession(w, r)
	if session == nil {
		return
	}
	if session.Status == interview.StatusCompleted {
		writeError(w, http.StatusConflict, "interview already completed", nil)
		return
	}

	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	answered := make(map[string]bool, len(req.Answers))
	for _, answer := range req.Answers {
		if strings.TrimSpace(answer.AnswerText) != "" {
			answered[answer.QuestionID] = true
		}
	}
	for _, question := range session.Questions {
		if !answered[question.ID] {
			writeError(w, http.StatusBadRequest, "all questions must be answered", nil)
			return
		}
	}

	now := time.Now()
	session.Answers = req.Answers
	session.Status = interview.StatusCompleted
	session.CompletedAt = &now
	if err := h.saveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// VOICE ENDPOINTS
// =============================================================================

// GetVoiceConfig returns the realtime configuration for the browser client.
// GET /api/public/interview/{token}/voice/config
func (h *Handler) GetVoiceConfig(w http.ResponseWriter, r *http.Request) {
	session := h.publicSession(w, r)
	if session == nil {
		return
	}
	if session.Mode != interview.ModeVoice {
		writeError(w, http.StatusConflict, "not a voice interview", nil)
		return
	}
	cfg := interview.LoadVoiceConfig(os.Getenv("OPENAI_API_KEY") != "")
	if !cfg.Enabled {
		writeError(w, http.StatusServiceUnavailable, "voice interviews are disabled", nil)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SubmitVoiceTurn scores one transcribed answer and advances the session.
// POST /api/public/interview/{token}/voice/transcript
func (h *Handler) SubmitVoiceTurn(w http.ResponseWriter, r *http.Request) {
	session := h.publicSession(w, r)
	if session == nil {
		return
	}
	if session.Mode != interview.ModeVoice {
		writeError(w, http.StatusConflict, "not a voice interview", nil)
		return
	}
	if session.Status == interview.StatusCompleted {
		writeError(w, http.StatusConflict, "interview already completed", nil)
		return
	}

	var req VoiceTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "transcript text is required", nil)
		return
	}
	turnID := req.TurnID
	if turnID == "" {
		turnID = h.NewID()
	}

	interview.ScoreTurn(session, interview.Turn{ID: turnID, Text: req.Text})
	next := interview.NextQuestion(session)

	if err := h.saveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, VoiceTurnResponse{
		Phase:        session.Orchestration.Phase,
		NextQuestion: next,
	})
}

// CompleteVoiceInterview finalizes the session and stores the scored
// result document.
// POST /api/public/interview/{token}/voice/complete
func (h *Handler) CompleteVoiceInterview(w http.ResponseWriter, r *http.Request) {
	session := h.publicSession(w, r)
	if session == nil {
		return
	}
	if session.Mode != interview.ModeVoice {
		writeError(w, http.StatusConflict, "not a voice interview", nil)
		return
	}
	if session.Status == interview.StatusCompleted {
		writeError(w, http.StatusConflict, "interview already completed", nil)
		return
	}

	interview.Finalize(session, time.Now())
	result := interview.BuildVoiceResult(session)

	if err := h.saveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session", err)
		return
	}
	if err := h.saveResult(r.Context(), result); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save result", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
