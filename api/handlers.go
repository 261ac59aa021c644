/*
handlers.go - HTTP handlers for employees, leave, and holidays

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS (this file):
  Employees:
    GET    /api/employees               List all employees
    POST   /api/employees               Create employee
    GET    /api/employees/{id}          Get employee details
    PUT    /api/employees/{id}          Update employee fields
    GET    /api/employees/{id}/balance  Live balance calculation

  Leave applications:
    GET    /api/applications            List leave applications
    POST   /api/applications            Apply for leave
    POST   /api/applications/{id}/approve
    POST   /api/applications/{id}/reject

  Holidays:
    GET    /api/holidays
    POST   /api/holidays
    DELETE /api/holidays/{id}

  Admin:
    POST   /api/admin/leave/recalculate Roster-wide recalculation

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  Authentication lives in an upstream gateway; these handlers trust the
  X-User-Id and X-User-Role headers it forwards.

SEE ALSO:
  - dto.go: Request/response data structures
  - recruit.go, interview.go, learning.go: The other handler areas
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brillar/hr-portal/ai"
	"github.com/brillar/hr-portal/learning"
	"github.com/brillar/hr-portal/leave"
	"github.com/brillar/hr-portal/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Cache  *store.Cache
	Recalc *leave.Recalculator

	// AI is nil-safe: endpoints that need it return 503 when unset.
	AI ai.Client

	// Graph resolves OneDrive streaming links for lesson playback.
	Graph *learning.GraphLinker

	// NewID is swappable for deterministic tests.
	NewID func() string
}

// NewHandler creates a handler over the cached store.
func NewHandler(cache *store.Cache) *Handler {
	return &Handler{
		Cache:  cache,
		Recalc: &leave.Recalculator{Source: cache},
		NewID:  uuid.NewString,
	}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns the full roster.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employees", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Employees)
}

// GetEmployee returns one employee by id.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, _, err := h.findEmployee(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employees", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// CreateEmployee stores a new employee document. Arbitrary fields are
// accepted and round-tripped; only id and leaveBalances are reserved.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	emp, err := leave.NewEmployee(h.NewID(), fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee document", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employees", err)
		return
	}
	roster := append(append([]leave.Employee{}, snap.Employees...), emp)
	if err := h.Cache.SyncEmployees(r.Context(), roster); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(emp.ID)})
}

// UpdateEmployee merges submitted fields into an existing employee.
// Balances and ids cannot be changed this way.
// PUT /api/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employees", err)
		return
	}

	id := chi.URLParam(r, "id")
	roster := append([]leave.Employee{}, snap.Employees...)
	found := false
	for i := range roster {
		if string(roster[i].ID) == id {
			if err := roster[i].Merge(updates); err != nil {
				writeError(w, http.StatusBadRequest, "invalid update", err)
				return
			}
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "employee not found", nil)
		return
	}

	if err := h.Cache.SyncEmployees(r.Context(), roster); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetBalance runs the calculator live for one employee.
// GET /api/employees/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employees", err)
		return
	}

	id := chi.URLParam(r, "id")
	var emp *leave.Employee
	for i := range snap.Employees {
		if string(snap.Employees[i].ID) == id {
			emp = &snap.Employees[i]
			break
		}
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "employee not found", nil)
		return
	}

	asOf := time.Now()
	state := leave.ComputeLeaveState(emp, snap.LeaveApplications, snap.Holidays, leave.Options{AsOf: asOf})
	writeJSON(w, http.StatusOK, BalanceResponse{
		EmployeeID: string(emp.ID),
		Name:       emp.Name,
		Balances:   state.Balances,
		AsOf:       asOf,
	})
}

func (h *Handler) findEmployee(r *http.Request, id string) (*leave.Employee, *store.Snapshot, error) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		return nil, nil, err
	}
	for i := range snap.Employees {
		if string(snap.Employees[i].ID) == id {
			return &snap.Employees[i], snap, nil
		}
	}
	return nil, snap, nil
}

// =============================================================================
// LEAVE APPLICATION ENDPOINTS
// =============================================================================

// ListLeaveApplications returns all leave applications.
// GET /api/applications
func (h *Handler) ListLeaveApplications(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.LeaveApplications)
}

// ApplyLeave submits a new leave application in pending state.
// POST /api/applications
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "employeeId, from and to are required", nil)
		return
	}
	leaveType := leave.Type(strings.ToLower(strings.TrimSpace(req.Type)))
	switch leaveType {
	case leave.TypeAnnual, leave.TypeCasual, leave.TypeMedical:
	default:
		writeError(w, http.StatusBadRequest, "unknown leave type", nil)
		return
	}
	if leave.ParseFlexibleDate(req.From) == nil || leave.ParseFlexibleDate(req.To) == nil {
		writeError(w, http.StatusBadRequest, "unparseable from/to date", nil)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}

	now := time.Now()
	app := leave.Application{
		ID:         leave.FlexID(h.NewID()),
		EmployeeID: leave.FlexID(req.EmployeeID),
		Type:       leaveType,
		Status:     "pending",
		From:       req.From,
		To:         req.To,
		HalfDay:    req.HalfDay,
		Reason:     req.Reason,
		AppliedAt:  &now,
	}

	apps := append(append([]leave.Application{}, snap.LeaveApplications...), app)
	if err := h.Cache.SyncLeaveApplications(r.Context(), apps); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save application", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(app.ID)})
}

// ApproveApplication approves a leave application and recalculates the
// roster so the taken days land in balances immediately.
// POST /api/applications/{id}/approve
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.setApplicationStatus(w, r, "approved")
}

// RejectApplication rejects a leave application.
// POST /api/applications/{id}/reject
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.setApplicationStatus(w, r, "rejected")
}

func (h *Handler) setApplicationStatus(w http.ResponseWriter, r *http.Request, status string) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load applications", err)
		return
	}

	id := chi.URLParam(r, "id")
	apps := append([]leave.Application{}, snap.LeaveApplications...)
	found := false
	for i := range apps {
		if string(apps[i].ID) == id {
			apps[i].Status = status
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "application not found", nil)
		return
	}

	if err := h.Cache.SyncLeaveApplications(r.Context(), apps); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save application", err)
		return
	}

	// Status changes move days between accrued and taken; refresh the
	// persisted balances right away rather than waiting for the monthly run.
	summary, err := h.Recalc.RecalculateAll(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to recalculate balances", err)
		return
	}
	writeJSON(w, http.StatusOK, RecalculateResponse{Success: true, Summary: summary})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the holiday calendar.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Holidays)
}

// CreateHoliday adds a date to the holiday calendar.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var holiday leave.Holiday
	if err := json.NewDecoder(r.Body).Decode(&holiday); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if holiday.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}
	if _, err := time.Parse("2006-01-02", holiday.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return
	}
	if holiday.ID == "" {
		holiday.ID = leave.FlexID(h.NewID())
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}
	holidays := append(append([]leave.Holiday{}, snap.Holidays...), holiday)
	if err := h.Cache.SyncHolidays(r.Context(), holidays); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: string(holiday.ID)})
}

// DeleteHoliday removes a date from the holiday calendar.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load holidays", err)
		return
	}

	id := chi.URLParam(r, "id")
	var kept []leave.Holiday
	for _, holiday := range snap.Holidays {
		if string(holiday.ID) != id {
			kept = append(kept, holiday)
		}
	}
	if len(kept) == len(snap.Holidays) {
		writeError(w, http.StatusNotFound, "holiday not found", nil)
		return
	}
	if err := h.Cache.SyncHolidays(r.Context(), kept); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// RecalculateLeave runs the roster-wide recalculation on demand.
// POST /api/admin/leave/recalculate
func (h *Handler) RecalculateLeave(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Recalc.RecalculateAll(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecalculateResponse{Success: true, Summary: summary})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// callerRole reads the role the auth gateway forwarded.
func callerRole(r *http.Request) string {
	return r.Header.Get("X-User-Role")
}

// callerID reads the user id the auth gateway forwarded.
func callerID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
