/*
dto.go - Request and response types for the HTTP API

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the stored document shapes from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response types returned to clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/brillar/hr-portal/interview"
	"github.com/brillar/hr-portal/leave"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// LEAVE
// =============================================================================

// ApplyLeaveRequest submits a leave application.
type ApplyLeaveRequest struct {
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	From       string `json:"from"`
	To         string `json:"to"`
	HalfDay    bool   `json:"halfDay"`
	Reason     string `json:"reason"`
}

// BalanceResponse is the live balance view for one employee.
type BalanceResponse struct {
	EmployeeID string         `json:"employeeId"`
	Name       string         `json:"name,omitempty"`
	Balances   leave.Balances `json:"leaveBalances"`
	AsOf       time.Time      `json:"asOf"`
}

// RecalculateResponse wraps a roster recalculation run.
type RecalculateResponse struct {
	Success bool          `json:"success"`
	Summary leave.Summary `json:"summary"`
}

// =============================================================================
// RECRUITMENT
// =============================================================================

// CreateCandidateApplicationRequest applies a candidate to a position.
type CreateCandidateApplicationRequest struct {
	CandidateID string `json:"candidateId"`
	PositionID  string `json:"positionId"`
}

// CreatedResponse reports the id of a newly stored document.
type CreatedResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is the generic mutation acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// =============================================================================
// AI INTERVIEW
// =============================================================================

// CreateInterviewRequest starts an interview session for an application.
type CreateInterviewRequest struct {
	ApplicationID string `json:"applicationId"`
	Mode          string `json:"mode,omitempty"`
}

// CreateInterviewResponse returns the session and its public token.
type CreateInterviewResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	Mode      string `json:"mode"`
}

// PublicSessionResponse is the candidate-facing view of a session. It
// never includes scores or orchestration internals.
type PublicSessionResponse struct {
	Token         string               `json:"token"`
	Mode          string               `json:"mode"`
	Status        string               `json:"status"`
	PositionTitle string               `json:"positionTitle,omitempty"`
	Questions     []interview.Question `json:"questions"`
}

// SubmitAnswersRequest carries the candidate's written answers.
type SubmitAnswersRequest struct {
	Answers []interview.Answer `json:"answers"`
}

// VoiceTurnRequest carries one transcribed spoken answer.
type VoiceTurnRequest struct {
	TurnID string `json:"turnId"`
	Text   string `json:"text"`
}

// VoiceTurnResponse acknowledges a scored turn and names the next
// question, if any.
type VoiceTurnResponse struct {
	Phase        string              `json:"phase"`
	NextQuestion *interview.Question `json:"nextQuestion,omitempty"`
}

// =============================================================================
// LEARNING HUB
// =============================================================================

// ReorderRequest carries the new ordering for modules or lessons.
type ReorderRequest struct {
	OrderedModuleIDs []string `json:"orderedModuleIds,omitempty"`
	OrderedLessonIDs []string `json:"orderedLessonIds,omitempty"`
}

// AssignmentResponse reports how many assignment rows were written.
type AssignmentResponse struct {
	Count int `json:"count"`
}
