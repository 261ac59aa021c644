/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. CORS:          Cross-origin requests for the portal frontend
  3. RequestLogger: Structured request logging (httplog over slog)
  4. Recoverer:     Panic recovery (500 instead of crash)

ROUTE GROUPS:
  /api/employees/*               Employee roster and live balances
  /api/applications/*            Leave applications and approval
  /api/holidays/*                Public holiday calendar
  /api/admin/*                   Admin operations (recalculation)
  /api/positions/*               Open positions and AI question generation
  /api/candidates/*              Candidate pipeline
  /api/recruitment/*             Candidate applications
  /api/ai-interview/*            Interview sessions and results (HR side)
  /api/public/interview/*        Candidate-facing token URLs
  /api/learning/*                Learning hub

SECURITY NOTE:
  Authentication lives in the gateway in front of this service. Handlers
  trust the forwarded X-User-Role and X-User-Id headers for role checks.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hr-portal"),
	)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Role", "X-User-Id"},
		AllowCredentials: true,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Get("/{id}/balance", h.GetBalance)
		})

		// Leave application routes
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListLeaveApplications)
			r.Post("/", h.ApplyLeave)
			r.Post("/{id}/approve", h.ApproveApplication)
			r.Post("/{id}/reject", h.RejectApplication)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/leave/recalculate", h.RecalculateLeave)
		})

		// Recruitment routes
		r.Route("/positions", func(r chi.Router) {
			r.Get("/", h.ListPositions)
			r.Post("/", h.CreatePosition)
			r.Get("/{id}", h.GetPosition)
			r.Put("/{id}", h.UpdatePosition)
			r.Patch("/{id}/publish", h.PublishPosition)
			r.Post("/{id}/ai-questions/generate", h.GeneratePositionQuestions)
		})
		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", h.ListCandidates)
			r.Post("/", h.CreateCandidate)
			r.Get("/{id}", h.GetCandidate)
		})
		r.Route("/recruitment", func(r chi.Router) {
			r.Get("/applications", h.ListRecruitApplications)
			r.Post("/applications", h.CreateRecruitApplication)
		})

		// Interview routes (HR side)
		r.Route("/ai-interview", func(r chi.Router) {
			r.Post("/sessions", h.CreateInterviewSession)
			r.Get("/results/{applicationId}", h.GetInterviewResult)
		})

		// Candidate-facing token URLs
		r.Route("/public/interview/{token}", func(r chi.Router) {
			r.Get("/", h.GetPublicSession)
			r.Post("/answers", h.SubmitAnswers)
			r.Get("/voice/config", h.GetVoiceConfig)
			r.Post("/voice/transcript", h.SubmitVoiceTurn)
			r.Post("/voice/complete", h.CompleteVoiceInterview)
		})

		// Learning hub routes
		r.Route("/learning", func(r chi.Router) {
			r.Route("/courses", func(r chi.Router) {
				r.Get("/", h.ListCourses)
				r.Post("/", h.CreateCourse)
				r.Put("/{id}", h.UpdateCourse)
				r.Patch("/{id}/publish", h.PublishCourse)
				r.Patch("/{id}/archive", h.ArchiveCourse)
				r.Post("/{id}/modules", h.CreateModule)
				r.Post("/{id}/modules/reorder", h.ReorderModules)
			})
			r.Route("/modules", func(r chi.Router) {
				r.Put("/{id}", h.UpdateModule)
				r.Post("/{id}/lessons", h.CreateLesson)
				r.Post("/{id}/lessons/reorder", h.ReorderLessons)
			})
			r.Route("/lessons", func(r chi.Router) {
				r.Put("/{id}", h.UpdateLesson)
				r.Get("/{id}/assets", h.ListLessonAssets)
				r.Post("/{id}/assets", h.CreateAsset)
			})
			r.Put("/assets/{id}", h.UpdateAsset)
			r.Post("/assignments", h.CreateAssignments)
			r.Post("/assignments/sync", h.SyncRoleAssignments)
			r.Get("/progress", h.ListProgress)
		})
	})

	return r
}
