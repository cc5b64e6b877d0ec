package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/student-portal/internal/config"
	"github.com/terra-clan/student-portal/internal/gateway"
	"github.com/terra-clan/student-portal/internal/models"
	"github.com/terra-clan/student-portal/internal/monitor"
	"github.com/terra-clan/student-portal/internal/storage"
)

// QuestionLevelSource fetches question levels; *client.Client implements it
type QuestionLevelSource interface {
	QuestionLevels(ctx context.Context) ([]models.QuestionLevel, error)
}

// Dependencies are the collaborators of the API server. Gateway and Prober
// are optional.
type Dependencies struct {
	Repository     storage.Repository
	ReadTracker    storage.ReadTracker
	QuestionLevels QuestionLevelSource
	Gateway        *gateway.Gateway
	Prober         *monitor.Prober
	StreamInterval time.Duration
	// Critical names the probed dependencies that gate /ready
	Critical []string
}

// Server represents the portal HTTP server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	repo           storage.Repository
	readTracker    storage.ReadTracker
	levels         QuestionLevelSource
	gateway        *gateway.Gateway
	prober         *monitor.Prober
	streamInterval time.Duration
	critical       []string
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if deps.StreamInterval <= 0 {
		deps.StreamInterval = 30 * time.Second
	}
	if deps.ReadTracker == nil {
		deps.ReadTracker = storage.NewMemoryReadTracker()
	}

	s := &Server{
		config:         cfg,
		repo:           deps.Repository,
		readTracker:    deps.ReadTracker,
		levels:         deps.QuestionLevels,
		gateway:        deps.Gateway,
		prober:         deps.Prober,
		streamInterval: deps.StreamInterval,
		critical:       deps.Critical,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", StudentHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)

		r.Group(func(r chi.Router) {
			r.Use(StudentMiddleware)

			r.Get("/dashboard", s.handleDashboard)

			r.Get("/widgets/feedback", s.handleListFeedback)
			r.Get("/widgets/notifications", s.handleListNotifications)
			r.Post("/widgets/notifications/{id}/read", s.handleMarkNotificationRead)
			r.Get("/widgets/payments", s.handlePayments)
			r.Get("/widgets/question-levels", s.handleQuestionLevels)
		})
	})

	// Long-lived; kept out of the request timeout
	r.With(StudentMiddleware).Get("/widgets/notifications/stream", s.handleNotificationStream)

	if s.gateway != nil {
		for _, prefix := range s.gateway.Prefixes() {
			r.Mount(prefix, s.gateway)
			slog.Info("gateway route mounted", "prefix", prefix, "target", s.gateway.Targets()[prefix])
		}
	}

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
