package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brillar/hr-portal/ai"
	"github.com/brillar/hr-portal/api"
	"github.com/brillar/hr-portal/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type testAPI struct {
	handler *api.Handler
	router  http.Handler
	mem     *store.Memory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mem := store.NewMemory()
	cache := store.NewCache(mem, time.Minute)
	handler := api.NewHandler(cache)

	n := 0
	handler.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return &testAPI{handler: handler, router: api.NewRouter(handler), mem: mem}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

var hrHeaders = map[string]string{"X-User-Role": "hr", "X-User-Id": "hr-1"}

type stubAI struct{ response []byte }

func (s *stubAI) CompleteJSON(ctx context.Context, req ai.Request) ([]byte, error) {
	return s.response, nil
}

// =============================================================================
// EMPLOYEES AND LEAVE
// =============================================================================

func TestCreateAndGetEmployee(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/employees", map[string]any{
		"name":              "Asha",
		"department":        "Engineering",
		"fullTimeStartDate": "2024-01-01",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodGet, "/api/employees/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	emp := decode[map[string]any](t, rec)
	if emp["name"] != "Asha" {
		t.Errorf("name = %v", emp["name"])
	}
	if emp["department"] != "Engineering" {
		t.Errorf("department lost: %v", emp["department"])
	}
}

func TestCreateEmployeeRequiresName(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/employees", map[string]any{"department": "X"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFailedEmployeeUpdateLeavesCacheUntouched(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/employees", map[string]any{
		"name":       "Asha",
		"department": "Engineering",
	}, nil)
	created := decode[api.CreatedResponse](t, rec)

	// Warm the cache, then make the write-back fail.
	rec = app.do(t, http.MethodGet, "/api/employees/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	app.mem.FailWrites = errors.New("disk full")

	rec = app.do(t, http.MethodPut, "/api/employees/"+created.ID, map[string]any{
		"department": "Sales",
	}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("update status = %d, want 500", rec.Code)
	}
	app.mem.FailWrites = nil

	// The cached roster must still serve the persisted value.
	rec = app.do(t, http.MethodGet, "/api/employees/"+created.ID, nil, nil)
	emp := decode[map[string]any](t, rec)
	if emp["department"] != "Engineering" {
		t.Errorf("department = %v, want Engineering", emp["department"])
	}
}

func TestGetBalanceComputesLive(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/employees", map[string]any{
		"name":              "Asha",
		"fullTimeStartDate": "2020-01-01",
	}, nil)
	created := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodGet, "/api/employees/"+created.ID+"/balance", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	balance := decode[api.BalanceResponse](t, rec)
	if balance.EmployeeID != created.ID {
		t.Errorf("employeeId = %q", balance.EmployeeID)
	}
	if balance.Balances.Annual.YearlyAllocation != 10 {
		t.Errorf("annual allocation = %v, want 10", balance.Balances.Annual.YearlyAllocation)
	}
}

func TestApplyLeaveValidation(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/applications", api.ApplyLeaveRequest{
		EmployeeID: "e1", Type: "sabbatical", From: "2025-09-01", To: "2025-09-02",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type status = %d, want 400", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/applications", api.ApplyLeaveRequest{
		EmployeeID: "e1", Type: "annual", From: "not a date", To: "2025-09-02",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func TestLeaveApprovalRecalculates(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/employees", map[string]any{
		"name":              "Asha",
		"fullTimeStartDate": "2024-01-01",
	}, nil)
	employee := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/applications", api.ApplyLeaveRequest{
		EmployeeID: employee.ID, Type: "annual", From: "2025-09-01", To: "2025-09-02",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply status = %d, body %s", rec.Code, rec.Body.String())
	}
	leaveApp := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/applications/"+leaveApp.ID+"/approve", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[api.RecalculateResponse](t, rec)
	if !result.Success {
		t.Error("approve should report success")
	}
	if result.Summary.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Summary.Processed)
	}
}

func TestHolidayLifecycle(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/holidays", map[string]any{"date": "2025-12-25", "name": "Christmas"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/holidays", map[string]any{"date": "25/12/2025"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec = app.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/api/holidays", nil, nil)
	holidays := decode[[]map[string]any](t, rec)
	if len(holidays) != 0 {
		t.Errorf("holidays = %d, want 0", len(holidays))
	}
}

// =============================================================================
// RECRUITMENT
// =============================================================================

func TestPositionPublishFilter(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/positions", map[string]any{"title": "Backend Engineer"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decode[api.CreatedResponse](t, rec)
	app.do(t, http.MethodPost, "/api/positions", map[string]any{"title": "Designer"}, nil)

	rec = app.do(t, http.MethodPatch, "/api/positions/"+created.ID+"/publish", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/api/positions?published=true", nil, nil)
	published := decode[[]map[string]any](t, rec)
	if len(published) != 1 {
		t.Fatalf("published = %d, want 1", len(published))
	}
	if published[0]["title"] != "Backend Engineer" {
		t.Errorf("title = %v", published[0]["title"])
	}
}

func TestGenerateQuestionsStoresOnPosition(t *testing.T) {
	app := newTestAPI(t)
	app.handler.AI = &stubAI{response: []byte(`[{"id":"q1","text":"Why us?"},{"text":"Walk me through a project."}]`)}

	rec := app.do(t, http.MethodPost, "/api/positions", map[string]any{"title": "Backend Engineer"}, nil)
	created := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/positions/"+created.ID+"/ai-questions/generate", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodGet, "/api/positions/"+created.ID, nil, nil)
	position := decode[map[string]any](t, rec)
	questions, _ := position["aiInterviewQuestions"].([]any)
	if len(questions) != 2 {
		t.Errorf("stored questions = %d, want 2", len(questions))
	}
}

func TestGenerateQuestionsWithoutAIClient(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/positions", map[string]any{"title": "Engineer"}, nil)
	created := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/positions/"+created.ID+"/ai-questions/generate", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCandidateRequiresName(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/candidates", map[string]any{"phone": "123"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/candidates", map[string]any{"email": "ada@example.com"}, nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestRecruitApplicationNeedsExistingPosition(t *testing.T) {
	app := newTestAPI(t)
	rec := app.do(t, http.MethodPost, "/api/recruitment/applications", api.CreateCandidateApplicationRequest{
		CandidateID: "c1", PositionID: "missing",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// INTERVIEW FLOW
// =============================================================================

// setupInterview creates a position with questions, a candidate, and an
// application, returning the application id.
func setupInterview(t *testing.T, app *testAPI) string {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/api/positions", map[string]any{
		"title": "Backend Engineer",
		"aiInterviewQuestions": []map[string]string{
			{"id": "q1", "text": "Tell me about yourself"},
			{"id": "q2", "text": "Describe a hard bug"},
		},
	}, nil)
	position := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/candidates", map[string]any{"name": "Ada"}, nil)
	candidate := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/recruitment/applications", api.CreateCandidateApplicationRequest{
		CandidateID: candidate.ID, PositionID: position.ID,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("application status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[api.CreatedResponse](t, rec).ID
}

func TestTextInterviewFlow(t *testing.T) {
	app := newTestAPI(t)
	applicationID := setupInterview(t, app)

	rec := app.do(t, http.MethodPost, "/api/ai-interview/sessions", api.CreateInterviewRequest{
		ApplicationID: applicationID,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("session status = %d, body %s", rec.Code, rec.Body.String())
	}
	session := decode[api.CreateInterviewResponse](t, rec)
	if session.Token == "" || session.Mode != "text" {
		t.Fatalf("session = %+v", session)
	}

	rec = app.do(t, http.MethodGet, "/api/public/interview/"+session.Token, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public session status = %d", rec.Code)
	}
	public := decode[api.PublicSessionResponse](t, rec)
	if len(public.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(public.Questions))
	}

	// Partial answers are rejected.
	rec = app.do(t, http.MethodPost, "/api/public/interview/"+session.Token+"/answers", map[string]any{
		"answers": []map[string]string{{"questionId": "q1", "answerText": "only one"}},
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("partial answers status = %d, want 400", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/public/interview/"+session.Token+"/answers", map[string]any{
		"answers": []map[string]string{
			{"questionId": "q1", "answerText": "I build backends."},
			{"questionId": "q2", "answerText": "A race condition in a cache."},
		},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("answers status = %d, body %s", rec.Code, rec.Body.String())
	}

	// A second submission conflicts.
	rec = app.do(t, http.MethodPost, "/api/public/interview/"+session.Token+"/answers", map[string]any{
		"answers": []map[string]string{
			{"questionId": "q1", "answerText": "again"},
			{"questionId": "q2", "answerText": "again"},
		},
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("resubmission status = %d, want 409", rec.Code)
	}
}

func TestInterviewSessionRequiresQuestions(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/positions", map[string]any{"title": "Engineer"}, nil)
	position := decode[api.CreatedResponse](t, rec)
	rec = app.do(t, http.MethodPost, "/api/candidates", map[string]any{"name": "Ada"}, nil)
	candidate := decode[api.CreatedResponse](t, rec)
	rec = app.do(t, http.MethodPost, "/api/recruitment/applications", api.CreateCandidateApplicationRequest{
		CandidateID: candidate.ID, PositionID: position.ID,
	}, nil)
	applicationID := decode[api.CreatedResponse](t, rec).ID

	rec = app.do(t, http.MethodPost, "/api/ai-interview/sessions", api.CreateInterviewRequest{
		ApplicationID: applicationID,
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestVoiceInterviewFlow(t *testing.T) {
	app := newTestAPI(t)
	applicationID := setupInterview(t, app)

	rec := app.do(t, http.MethodPost, "/api/ai-interview/sessions", api.CreateInterviewRequest{
		ApplicationID: applicationID, Mode: "voice",
	}, nil)
	session := decode[api.CreateInterviewResponse](t, rec)
	if session.Mode != "voice" {
		t.Fatalf("mode = %q", session.Mode)
	}
	base := "/api/public/interview/" + session.Token

	rec = app.do(t, http.MethodPost, base+"/voice/transcript", api.VoiceTurnRequest{
		Text: "I have built several backend services because scale matters and the result improved our latency a lot over the years across many projects and teams and deployments and incidents and migrations and reviews and designs and rollouts and more",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("transcript status = %d, body %s", rec.Code, rec.Body.String())
	}
	turn := decode[api.VoiceTurnResponse](t, rec)
	if turn.NextQuestion == nil || turn.NextQuestion.ID != "q2" {
		t.Errorf("next question = %+v, want q2", turn.NextQuestion)
	}

	rec = app.do(t, http.MethodPost, base+"/voice/complete", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodGet, "/api/ai-interview/results/"+applicationID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d", rec.Code)
	}
	result := decode[map[string]any](t, rec)
	if result["verdict"] == "" {
		t.Error("result should carry a verdict")
	}

	// The session is now closed to further turns.
	rec = app.do(t, http.MethodPost, base+"/voice/transcript", api.VoiceTurnRequest{Text: "more"}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("post-complete transcript status = %d, want 409", rec.Code)
	}
}

// =============================================================================
// LEARNING HUB ACCESS
// =============================================================================

func TestLearningWriteRequiresRole(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/learning/courses", map[string]any{"title": "Onboarding"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/learning/courses", map[string]any{"title": "Onboarding"},
		map[string]string{"X-User-Role": "engineer", "X-User-Id": "e1"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("engineer status = %d, want 403", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/learning/courses", map[string]any{"title": "Onboarding"}, hrHeaders)
	if rec.Code != http.StatusCreated {
		t.Errorf("hr status = %d, want 201", rec.Code)
	}
}

func TestCourseLifecycleAndModuleReorder(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodPost, "/api/learning/courses", map[string]any{"title": "Onboarding"}, hrHeaders)
	course := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPatch, "/api/learning/courses/"+course.ID+"/publish", nil, hrHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/api/learning/courses?status=published", nil, nil)
	published := decode[[]map[string]any](t, rec)
	if len(published) != 1 {
		t.Fatalf("published courses = %d, want 1", len(published))
	}

	rec = app.do(t, http.MethodPost, "/api/learning/courses/"+course.ID+"/modules", map[string]any{"title": "Week 1"}, hrHeaders)
	m1 := decode[api.CreatedResponse](t, rec)
	rec = app.do(t, http.MethodPost, "/api/learning/courses/"+course.ID+"/modules", map[string]any{"title": "Week 2"}, hrHeaders)
	m2 := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/learning/courses/"+course.ID+"/modules/reorder", api.ReorderRequest{
		OrderedModuleIDs: []string{m2.ID, m1.ID},
	}, hrHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodPost, "/api/learning/courses/"+course.ID+"/modules/reorder", api.ReorderRequest{
		OrderedModuleIDs: []string{m1.ID, "missing"},
	}, hrHeaders)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatch reorder status = %d, want 400", rec.Code)
	}
}

func TestAssignmentsAndSync(t *testing.T) {
	app := newTestAPI(t)

	app.do(t, http.MethodPost, "/api/employees", map[string]any{"name": "Asha", "role": "engineer"}, nil)
	rec := app.do(t, http.MethodPost, "/api/learning/courses", map[string]any{"title": "Security"}, hrHeaders)
	course := decode[api.CreatedResponse](t, rec)

	rec = app.do(t, http.MethodPost, "/api/learning/assignments", map[string]any{
		"courseId": course.ID,
		"role":     "engineer",
	}, hrHeaders)
	if rec.Code != http.StatusCreated {
		t.Fatalf("assignments status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodPost, "/api/learning/assignments/sync", nil, hrHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body %s", rec.Code, rec.Body.String())
	}
	synced := decode[api.AssignmentResponse](t, rec)
	if synced.Count != 1 {
		t.Errorf("derived rows = %d, want 1", synced.Count)
	}

	// Re-running derives nothing new.
	rec = app.do(t, http.MethodPost, "/api/learning/assignments/sync", nil, hrHeaders)
	synced = decode[api.AssignmentResponse](t, rec)
	if synced.Count != 0 {
		t.Errorf("second sync rows = %d, want 0", synced.Count)
	}
}

func TestProgressReadGuard(t *testing.T) {
	app := newTestAPI(t)

	rec := app.do(t, http.MethodGet, "/api/learning/progress", nil,
		map[string]string{"X-User-Role": "engineer", "X-User-Id": "e1"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("engineer status = %d, want 403", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/api/learning/progress", nil,
		map[string]string{"X-User-Role": "manager", "X-User-Id": "m1"})
	if rec.Code != http.StatusOK {
		t.Errorf("manager status = %d, want 200", rec.Code)
	}
}
