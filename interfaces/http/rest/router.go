package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ekg-backend/infrastructure/config"
	"ekg-backend/interfaces/http/rest/handlers"
	"ekg-backend/interfaces/http/rest/middleware"
	"ekg-backend/pkg/auth"
	"ekg-backend/pkg/observability"
)

// Router assembles the HTTP surface.
type Router struct {
	cfg       *config.Config
	answers   *handlers.AnswerHandler
	tasks     *handlers.TaskHandler
	domains   *handlers.DomainHandler
	validator *auth.JWTValidator
	ipLimiter middleware.KeyLimiter
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRouter creates a router instance.
func NewRouter(
	cfg *config.Config,
	answers *handlers.AnswerHandler,
	tasks *handlers.TaskHandler,
	domains *handlers.DomainHandler,
	validator *auth.JWTValidator,
	ipLimiter middleware.KeyLimiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		answers:   answers,
		tasks:     tasks,
		domains:   domains,
		validator: validator,
		ipLimiter: ipLimiter,
		metrics:   metrics,
		logger:    logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Operational endpoints stay outside auth and rate limits.
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rt.ipLimiter, rt.logger))

		if rt.cfg.EnableAuth {
			userLimiter := auth.NewUserRateLimiter(rt.cfg.RequestsPerMinute * 2)
			r.Use(middleware.Authenticate(rt.validator, userLimiter, rt.logger))
		}

		r.Post("/answers", rt.answers.Ask)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", rt.tasks.List)
			r.Get("/stats", rt.tasks.Stats)
			r.Get("/{taskID}", rt.tasks.Get)
			r.Get("/{taskID}/answer", rt.tasks.Answer)
			r.Delete("/{taskID}", rt.tasks.Delete)
		})

		r.Route("/domains", func(r chi.Router) {
			r.Get("/", rt.domains.List)
			r.Get("/{domainID}", rt.domains.Get)
			r.Post("/{domainID}/warm", rt.domains.Warm)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
