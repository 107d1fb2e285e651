package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/ingest/csvlog"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/scheduler"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Services are the domain services the HTTP handlers call.
type Services struct {
	Programs    *program.Service
	Scheduler   *scheduler.Service
	Apply       *apply.Service
	Progression *progression.Service
	CSV         *csvlog.Provider
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	svc      Services
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	mcp      http.Handler
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, svc Services, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		svc:      svc,
		log:      log,
		apiKey:   apiKey,
		identity: DevIdentity,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale resolves request identities through the tailnet instead of
// the local dev identity.
func (s *Server) SetTailscale(who WhoIser) {
	s.identity = TailscaleIdentity(who, s.log)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.withIdentity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleStats)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/training-summary", s.handleTrainingSummary)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/import/logs", s.handleImportLogs)
		r.Post("/psl/compile", s.handleCompile)

		r.Get("/programs", s.handleListPrograms)
		r.Get("/programs/{id}", s.handleGetProgram)
		r.Get("/programs/{id}/planned", s.handleListPlanned)
		r.Get("/program-exercises/{id}/suggestion", s.handleSuggest)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/programs", s.handleImportProgram)
			r.Delete("/programs/{id}", s.handleDeleteProgram)
			r.Post("/programs/{id}/activate", s.handleActivate)
			r.Post("/programs/{id}/deactivate", s.handleDeactivate)
			r.Post("/programs/{id}/generate", s.handleGenerate)
			r.Put("/programs/{id}/exercises/{exerciseID}/progression", s.handlePropagateProgression)
			r.Put("/program-exercises/{id}/progressions", s.handleReplaceProgressions)
			r.Post("/planned/{id}/apply", s.handleApply)
			r.Post("/workout-exercises/{id}/complete", s.handleComplete)
			r.Post("/program-exercises/{id}/suggestion/accept", s.handleAcceptSuggestion)
			r.Post("/import/csv", s.handleCSVImport)
		})
	})

	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", http.HandlerFunc(s.serveMCP))
}

// SetMCP mounts an MCP transport at /mcp behind the API key.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) serveMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		http.NotFound(w, r)
		return
	}
	s.mcp.ServeHTTP(w, r)
}

// withIdentity defers to the identity middleware current at request time so
// SetTailscale can be called after routes are built.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.identity(next).ServeHTTP(w, r)
	})
}
