/*
learning.go - HTTP handlers for the learning hub

Access policy:
  - All endpoints expect an authenticated caller (forwarded user header).
  - Write endpoints (create/edit/publish/archive/reorder/assignments)
    require an HR or L&D role.
  - Progress reads allow HR/L&D and manager roles.

ENDPOINTS:
  GET    /api/learning/courses
  POST   /api/learning/courses
  PUT    /api/learning/courses/{id}
  PATCH  /api/learning/courses/{id}/publish
  PATCH  /api/learning/courses/{id}/archive
  POST   /api/learning/courses/{id}/modules
  POST   /api/learning/courses/{id}/modules/reorder
  PUT    /api/learning/modules/{id}
  POST   /api/learning/modules/{id}/lessons
  POST   /api/learning/modules/{id}/lessons/reorder
  PUT    /api/learning/lessons/{id}
  GET    /api/learning/lessons/{id}/assets   Resolved for playback
  POST   /api/learning/lessons/{id}/assets
  PUT    /api/learning/assets/{id}
  POST   /api/learning/assignments
  POST   /api/learning/assignments/sync
  GET    /api/learning/progress
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/brillar/hr-portal/learning"
)

func (h *Handler) requireLearningWrite(w http.ResponseWriter, r *http.Request) bool {
	if callerID(r) == "" {
		writeError(w, http.StatusUnauthorized, "authentication_required", nil)
		return false
	}
	if !learning.CanWrite(callerRole(r)) {
		writeError(w, http.StatusForbidden, "learning_hub_write_forbidden", nil)
		return false
	}
	return true
}

func (h *Handler) requireProgressRead(w http.ResponseWriter, r *http.Request) bool {
	if callerID(r) == "" {
		writeError(w, http.StatusUnauthorized, "authentication_required", nil)
		return false
	}
	if !learning.CanReadProgress(callerRole(r)) {
		writeError(w, http.StatusForbidden, "learning_hub_progress_forbidden", nil)
		return false
	}
	return true
}

// =============================================================================
// COURSES
// =============================================================================

// ListCourses returns courses, newest first, optionally filtered by
// ?status=draft|published|archived.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load courses", err)
		return
	}
	courses := append([]learning.Course{}, snap.Courses...)
	if status := learning.NormalizeStatus(r.URL.Query().Get("status")); status != "" {
		var filtered []learning.Course
		for _, c := range courses {
			if c.Status == status {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, courses)
}

// CreateCourse stores a new course.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var body learning.Course
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	course, err := learning.NewCourse(h.NewID(), body, callerID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load courses", err)
		return
	}
	courses := append(append([]learning.Course{}, snap.Courses...), course)
	if err := h.Cache.SyncCourses(r.Context(), courses); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save course", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: course.ID})
}

// UpdateCourse applies a partial update.
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var updates learning.Course
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	h.mutateCourse(w, r, func(c *learning.Course) error { return c.Merge(updates) })
}

// PublishCourse flips a course to published.
func (h *Handler) PublishCourse(w http.ResponseWriter, r *http.Request) {
	h.mutateCourse(w, r, func(c *learning.Course) error {
		c.SetStatus(learning.StatusPublished)
		return nil
	})
}

// ArchiveCourse flips a course to archived.
func (h *Handler) ArchiveCourse(w http.ResponseWriter, r *http.Request) {
	h.mutateCourse(w, r, func(c *learning.Course) error {
		c.SetStatus(learning.StatusArchived)
		return nil
	})
}

func (h *Handler) mutateCourse(w http.ResponseWriter, r *http.Request, mutate func(*learning.Course) error) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load courses", err)
		return
	}

	id := chi.URLParam(r, "id")
	courses := append([]learning.Course{}, snap.Courses...)
	found := false
	for i := range courses {
		if courses[i].ID == id {
			if err := mutate(&courses[i]); err != nil {
				writeError(w, http.StatusBadRequest, "invalid course update", err)
				return
			}
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "course_not_found", nil)
		return
	}
	if err := h.Cache.SyncCourses(r.Context(), courses); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save course", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// MODULES AND LESSONS
// =============================================================================

// CreateModule adds a module to a course.
func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var body learning.Module
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	body.CourseID = chi.URLParam(r, "id")
	module, err := learning.NewModule(h.NewID(), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid module", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load modules", err)
		return
	}
	modules := append(append([]learning.Module{}, snap.Modules...), module)
	if err := h.Cache.SyncModules(r.Context(), modules); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save module", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: module.ID})
}

// UpdateModule applies a partial update.
func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var updates learning.Module
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load modules", err)
		return
	}
	id := chi.URLParam(r, "id")
	modules := append([]learning.Module{}, snap.Modules...)
	found := false
	for i := range modules {
		if modules[i].ID == id {
			modules[i].Merge(updates)
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "module_not_found", nil)
		return
	}
	if err := h.Cache.SyncModules(r.Context(), modules); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save module", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ReorderModules applies a new order to a course's modules.
func (h *Handler) ReorderModules(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load modules", err)
		return
	}

	courseID := chi.URLParam(r, "id")
	modules := append([]learning.Module{}, snap.Modules...)
	var own []*learning.Module
	for i := range modules {
		if modules[i].CourseID == courseID {
			own = append(own, &modules[i])
		}
	}
	if err := learning.Reorder(own, req.OrderedModuleIDs); err != nil {
		writeError(w, http.StatusBadRequest, "module_course_mismatch", err)
		return
	}
	if err := h.Cache.SyncModules(r.Context(), modules); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save modules", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// CreateLesson adds a lesson to a module.
func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var body learning.Lesson
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	body.ModuleID = chi.URLParam(r, "id")
	lesson, err := learning.NewLesson(h.NewID(), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lesson", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lessons", err)
		return
	}
	lessons := append(append([]learning.Lesson{}, snap.Lessons...), lesson)
	if err := h.Cache.SyncLessons(r.Context(), lessons); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save lesson", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: lesson.ID})
}

// UpdateLesson applies a partial update.
func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var updates learning.Lesson
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lessons", err)
		return
	}
	id := chi.URLParam(r, "id")
	lessons := append([]learning.Lesson{}, snap.Lessons...)
	found := false
	for i := range lessons {
		if lessons[i].ID == id {
			lessons[i].Merge(updates)
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "lesson_not_found", nil)
		return
	}
	if err := h.Cache.SyncLessons(r.Context(), lessons); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ReorderLessons applies a new order to a module's lessons.
func (h *Handler) ReorderLessons(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lessons", err)
		return
	}

	moduleID := chi.URLParam(r, "id")
	lessons := append([]learning.Lesson{}, snap.Lessons...)
	var own []*learning.Lesson
	for i := range lessons {
		if lessons[i].ModuleID == moduleID {
			own = append(own, &lessons[i])
		}
	}
	if err := learning.Reorder(own, req.OrderedLessonIDs); err != nil {
		writeError(w, http.StatusBadRequest, "lesson_module_mismatch", err)
		return
	}
	if err := h.Cache.SyncLessons(r.Context(), lessons); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save lessons", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// =============================================================================
// ASSETS
// =============================================================================

// CreateAsset attaches media to a lesson.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var body learning.LessonAsset
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	body.LessonID = chi.URLParam(r, "id")
	asset, err := learning.NewLessonAsset(h.NewID(), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assets", err)
		return
	}
	assets := append(append([]learning.LessonAsset{}, snap.Assets...), asset)
	if err := h.Cache.SyncAssets(r.Context(), assets); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: asset.ID})
}

// UpdateAsset applies a partial update.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var updates learning.LessonAsset
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assets", err)
		return
	}
	id := chi.URLParam(r, "id")
	assets := append([]learning.LessonAsset{}, snap.Assets...)
	found := false
	for i := range assets {
		if assets[i].ID == id {
			assets[i].Merge(updates)
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "asset_not_found", nil)
		return
	}
	if err := h.Cache.SyncAssets(r.Context(), assets); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save asset", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListLessonAssets returns a lesson's assets resolved for playback.
// GET /api/learning/lessons/{id}/assets
func (h *Handler) ListLessonAssets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assets", err)
		return
	}

	lessonID := chi.URLParam(r, "id")
	playable := []learning.PlayableAsset{}
	for _, asset := range snap.Assets {
		if asset.LessonID == lessonID {
			playable = append(playable, learning.ResolvePlayback(r.Context(), h.Graph, asset))
		}
	}
	writeJSON(w, http.StatusOK, playable)
}

// =============================================================================
// ASSIGNMENTS AND PROGRESS
// =============================================================================

// CreateAssignments assigns a course to a role and/or employees.
// POST /api/learning/assignments
func (h *Handler) CreateAssignments(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	var req learning.AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	assignments, err := learning.BuildAssignments(req, callerID(r), h.NewID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment", err)
		return
	}
	if err := h.Cache.UpsertAssignments(r.Context(), assignments); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save assignments", err)
		return
	}
	writeJSON(w, http.StatusCreated, AssignmentResponse{Count: len(assignments)})
}

// SyncRoleAssignments reconciles role-wide assignments against the
// roster, writing the missing derived per-employee rows.
// POST /api/learning/assignments/sync
func (h *Handler) SyncRoleAssignments(w http.ResponseWriter, r *http.Request) {
	if !h.requireLearningWrite(w, r) {
		return
	}
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assignments", err)
		return
	}
	derived := learning.SyncRoleAssignments(snap.Assignments, snap.Employees, h.NewID)
	if len(derived) > 0 {
		if err := h.Cache.UpsertAssignments(r.Context(), derived); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save assignments", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, AssignmentResponse{Count: len(derived)})
}

// ListProgress returns progress records, optionally filtered by
// ?employeeId and ?courseId, newest first.
// GET /api/learning/progress
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	if !h.requireProgressRead(w, r) {
		return
	}
	snap, err := h.Cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	courseID := r.URL.Query().Get("courseId")
	progress := []learning.Progress{}
	for _, p := range snap.Progress {
		if employeeID != "" && p.EmployeeID != employeeID {
			continue
		}
		if courseID != "" && p.CourseID != courseID {
			continue
		}
		progress = append(progress, p)
	}
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].UpdatedAt.After(progress[j].UpdatedAt)
	})
	writeJSON(w, http.StatusOK, progress)
}
