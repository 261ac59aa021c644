/*
Package learning implements the learning hub: courses made of ordered
modules and lessons, lesson assets with playback metadata, course
assignments (direct to an employee or derived from a role), and per
employee progress records.

Status lifecycle for courses is draft -> published -> archived; modules
and lessons carry an order index maintained by explicit reorder calls.
*/
package learning

import (
	"errors"
	"strings"
	"time"
)

// Course statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

var (
	ErrTitleRequired  = errors.New("learning: title is required")
	ErrCourseRequired = errors.New("learning: courseId is required")
	ErrModuleRequired = errors.New("learning: moduleId is required")
	ErrLessonRequired = errors.New("learning: lessonId is required")
	ErrEmptyOrder     = errors.New("learning: ordered ids are required")
	ErrOrderMismatch  = errors.New("learning: ordered ids do not match the collection")
	ErrNoTargets      = errors.New("learning: assignment needs a role or employee ids")
)

// NormalizeStatus maps free-form status input onto the lifecycle values.
// Unknown input yields the empty string so callers can distinguish
// "no filter" from an explicit status.
func NormalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusDraft:
		return StatusDraft
	case StatusPublished:
		return StatusPublished
	case StatusArchived:
		return StatusArchived
	}
	return ""
}

// Course is a top-level learning hub item.
type Course struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
}

// NewCourse validates and normalizes a submitted course.
func NewCourse(id string, c Course, createdBy string) (Course, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return Course{}, ErrTitleRequired
	}
	c.ID = id
	if status := NormalizeStatus(c.Status); status != "" {
		c.Status = status
	} else {
		c.Status = StatusDraft
	}
	c.CreatedBy = createdBy
	c.CreatedAt = time.Now()
	return c, nil
}

// Merge applies a partial update and keeps the lifecycle timestamps
// consistent with the resulting status.
func (c *Course) Merge(updates Course) error {
	if title := strings.TrimSpace(updates.Title); title != "" {
		c.Title = title
	}
	if updates.Description != "" {
		c.Description = updates.Description
	}
	if status := NormalizeStatus(updates.Status); status != "" {
		c.SetStatus(status)
	}
	now := time.Now()
	c.UpdatedAt = &now
	return nil
}

// SetStatus transitions the course and stamps publishedAt/archivedAt.
func (c *Course) SetStatus(status string) {
	now := time.Now()
	switch status {
	case StatusPublished:
		c.Status = StatusPublished
		if c.PublishedAt == nil {
			c.PublishedAt = &now
		}
		c.ArchivedAt = nil
	case StatusArchived:
		c.Status = StatusArchived
		if c.ArchivedAt == nil {
			c.ArchivedAt = &now
		}
	case StatusDraft:
		c.Status = StatusDraft
		c.PublishedAt = nil
		c.ArchivedAt = nil
	}
	c.UpdatedAt = &now
}

// Module is an ordered section of a course.
type Module struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewModule validates and normalizes a submitted module.
func NewModule(id string, m Module) (Module, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return Module{}, ErrTitleRequired
	}
	if strings.TrimSpace(m.CourseID) == "" {
		return Module{}, ErrCourseRequired
	}
	m.ID = id
	m.CreatedAt = time.Now()
	return m, nil
}

// Merge applies a partial update to a module.
func (m *Module) Merge(updates Module) {
	if title := strings.TrimSpace(updates.Title); title != "" {
		m.Title = title
	}
	if updates.Description != "" {
		m.Description = updates.Description
	}
	now := time.Now()
	m.UpdatedAt = &now
}

// Lesson is an ordered unit of a module.
type Lesson struct {
	ID          string     `json:"id"`
	ModuleID    string     `json:"moduleId"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewLesson validates and normalizes a submitted lesson.
func NewLesson(id string, l Lesson) (Lesson, error) {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return Lesson{}, ErrTitleRequired
	}
	if strings.TrimSpace(l.ModuleID) == "" {
		return Lesson{}, ErrModuleRequired
	}
	l.ID = id
	l.CreatedAt = time.Now()
	return l, nil
}

// Merge applies a partial update to a lesson.
func (l *Lesson) Merge(updates Lesson) {
	if title := strings.TrimSpace(updates.Title); title != "" {
		l.Title = title
	}
	if updates.Content != "" {
		l.Content = updates.Content
	}
	now := time.Now()
	l.UpdatedAt = &now
}

// CourseAssignment grants a course to an employee, either directly or
// derived from a role-wide assignment.
type CourseAssignment struct {
	ID             string     `json:"id"`
	CourseID       string     `json:"courseId"`
	AssignmentType string     `json:"assignmentType"`
	Role           string     `json:"role,omitempty"`
	EmployeeID     string     `json:"employeeId,omitempty"`
	AssignedBy     string     `json:"assignedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Assignment types.
const (
	AssignEmployee = "employee"
	AssignRole     = "role"
)

// AssignmentRequest is the submitted form of a course assignment.
type AssignmentRequest struct {
	CourseID    string   `json:"courseId"`
	Role        string   `json:"role,omitempty"`
	EmployeeIDs []string `json:"employeeIds,omitempty"`
}

// BuildAssignments expands a request into the assignment rows to upsert.
// A role yields one role-type row; employee ids yield one row each.
func BuildAssignments(req AssignmentRequest, assignedBy string, newID func() string) ([]CourseAssignment, error) {
	courseID := strings.TrimSpace(req.CourseID)
	if courseID == "" {
		return nil, ErrCourseRequired
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))

	var out []CourseAssignment
	now := time.Now()
	if role != "" {
		out = append(out, CourseAssignment{
			ID:             newID(),
			CourseID:       courseID,
			AssignmentType: AssignRole,
			Role:           role,
			AssignedBy:     assignedBy,
			CreatedAt:      now,
		})
	}
	for _, raw := range req.EmployeeIDs {
		employeeID := strings.TrimSpace(raw)
		if employeeID == "" {
			continue
		}
		out = append(out, CourseAssignment{
			ID:             newID(),
			CourseID:       courseID,
			AssignmentType: AssignEmployee,
			EmployeeID:     employeeID,
			AssignedBy:     assignedBy,
			CreatedAt:      now,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoTargets
	}
	return out, nil
}

// Progress records one employee's state in a course.
type Progress struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	CourseID    string     `json:"courseId"`
	LessonID    string     `json:"lessonId,omitempty"`
	Status      string     `json:"status"`
	Percent     float64    `json:"percent"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// =============================================================================
// ORDERING
// =============================================================================

// Orderable is implemented by modules and lessons for reorder operations.
type Orderable interface {
	OrderID() string
	SetOrder(index int)
}

func (m *Module) OrderID() string { return m.ID }
func (m *Module) SetOrder(index int) {
	m.Order = index
	now := time.Now()
	m.UpdatedAt = &now
}

func (l *Lesson) OrderID() string { return l.ID }
func (l *Lesson) SetOrder(index int) {
	l.Order = index
	now := time.Now()
	l.UpdatedAt = &now
}

// Reorder assigns order indexes per the given id list. Every ordered id
// must match an item and vice versa is not required; a missing id is a
// mismatch error and nothing is changed.
func Reorder[T Orderable](items []T, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return ErrEmptyOrder
	}
	index := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		index[id] = i
	}
	if len(index) == 0 {
		return ErrEmptyOrder
	}

	matched := 0
	for _, item := range items {
		if _, ok := index[item.OrderID()]; ok {
			matched++
		}
	}
	if matched != len(index) {
		return ErrOrderMismatch
	}

	for _, item := range items {
		if i, ok := index[item.OrderID()]; ok {
			item.SetOrder(i)
		}
	}
	return nil
}
