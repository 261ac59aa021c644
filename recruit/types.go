/*
Package recruit holds the recruitment-side domain: open positions, the
candidates who apply to them, and their applications. Position documents
carry the generated interview question set so a published position and
its interview script travel together.
*/
package recruit

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/brillar/hr-portal/interview"
)

// ErrTitleRequired means a position was submitted without a title.
var ErrTitleRequired = errors.New("recruit: position title is required")

// Position is an open role candidates can apply for.
type Position struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Department     string               `json:"department,omitempty"`
	Location       string               `json:"location,omitempty"`
	EmploymentType string               `json:"employmentType,omitempty"`
	Description    string               `json:"description,omitempty"`
	Status         string               `json:"status"`
	Questions      []interview.Question `json:"aiInterviewQuestions,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      *time.Time           `json:"updatedAt,omitempty"`
}

// Position statuses.
const (
	PositionDraft     = "draft"
	PositionPublished = "published"
	PositionClosed    = "closed"
)

// NewPosition validates and normalizes a submitted position.
func NewPosition(id string, p Position) (Position, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return Position{}, ErrTitleRequired
	}
	p.ID = id
	p.Status = normalizePositionStatus(p.Status)
	p.Questions = interview.NormalizeQuestions(p.Questions)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return p, nil
}

// Merge applies a partial update to an existing position.
func (p *Position) Merge(updates Position) error {
	if title := strings.TrimSpace(updates.Title); title != "" {
		p.Title = title
	}
	if updates.Department != "" {
		p.Department = updates.Department
	}
	if updates.Location != "" {
		p.Location = updates.Location
	}
	if updates.EmploymentType != "" {
		p.EmploymentType = updates.EmploymentType
	}
	if updates.Description != "" {
		p.Description = updates.Description
	}
	if updates.Status != "" {
		p.Status = normalizePositionStatus(updates.Status)
	}
	if updates.Questions != nil {
		p.Questions = interview.NormalizeQuestions(updates.Questions)
	}
	now := time.Now()
	p.UpdatedAt = &now
	return nil
}

// Published reports whether the position is visible to candidates.
func (p *Position) Published() bool {
	return strings.EqualFold(p.Status, PositionPublished)
}

// Profile returns the position fields the question generator needs.
func (p *Position) Profile() interview.PositionProfile {
	return interview.PositionProfile{
		Title:          p.Title,
		Department:     p.Department,
		EmploymentType: p.EmploymentType,
		Description:    p.Description,
	}
}

func normalizePositionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case PositionPublished:
		return PositionPublished
	case PositionClosed:
		return PositionClosed
	default:
		return PositionDraft
	}
}

// =============================================================================
// CANDIDATES
// =============================================================================

// Candidate is a person in the recruitment pipeline. Imported candidate
// documents come from several sources with inconsistent name fields, so
// the typed view keeps every variant and DisplayName picks the best one.
type Candidate struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Name      string     `json:"name,omitempty"`
	FullName  string     `json:"fullName,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Source    string     `json:"source,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	raw map[string]json.RawMessage
}

// DisplayName assembles the best available human-readable name.
func (c *Candidate) DisplayName() string {
	first := strings.TrimSpace(c.FirstName)
	last := strings.TrimSpace(c.LastName)
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(c.Email)
}

type candidateAlias Candidate

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var typed candidateAlias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*c = Candidate(typed)
	c.raw = raw
	return nil
}

func (c Candidate) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage, len(c.raw)+1)
	for k, v := range c.raw {
		merged[k] = v
	}
	typed, err := json.Marshal(candidateAlias(c))
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// =============================================================================
// RECRUITMENT APPLICATIONS
// =============================================================================

// Application links a candidate to a position. It shares the applications
// collection with leave applications; the store splits the two by type.
type Application struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	CandidateID        string     `json:"candidateId"`
	PositionID         string     `json:"positionId"`
	Status             string     `json:"status"`
	InterviewSessionID string     `json:"aiInterviewSessionId,omitempty"`
	InterviewToken     string     `json:"aiInterviewToken,omitempty"`
	AppliedAt          time.Time  `json:"appliedAt"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// TypeRecruitment tags an application document as recruitment-side.
const TypeRecruitment = "recruitment"

// Application statuses.
const (
	ApplicationApplied      = "applied"
	ApplicationInterviewing = "interviewing"
	ApplicationOffered      = "offered"
	ApplicationRejected     = "rejected"
	ApplicationHired        = "hired"
)

// NewApplication builds a recruitment application in the applied state.
func NewApplication(id, candidateID, positionID string) Application {
	return Application{
		ID:          id,
		Type:        TypeRecruitment,
		CandidateID: candidateID,
		PositionID:  positionID,
		Status:      ApplicationApplied,
		AppliedAt:   time.Now(),
	}
}

// SetStatus updates the pipeline status, normalized to lower case.
func (a *Application) SetStatus(status string) {
	a.Status = strings.ToLower(strings.TrimSpace(status))
	now := time.Now()
	a.UpdatedAt = &now
}

// AttachInterview records the interview session this application owns.
func (a *Application) AttachInterview(sessionID, token string) {
	a.InterviewSessionID = sessionID
	a.InterviewToken = token
	a.SetStatus(ApplicationInterviewing)
}
