package api

import (
	"net/http"

	"github.com/logicalerror-in/elice-dev/internal/auth"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
	"github.com/logicalerror-in/elice-dev/internal/health"
	"github.com/logicalerror-in/elice-dev/internal/metrics"
	"github.com/logicalerror-in/elice-dev/internal/posts"
)

type Router struct {
	mux           *http.ServeMux
	authHandlers  *auth.Handlers
	authService   *auth.Service
	postHandlers  *posts.Handlers
	healthHandler *health.Handler
	appMetrics    *metrics.Metrics
}

func NewRouter(
	authHandlers *auth.Handlers,
	authService *auth.Service,
	postHandlers *posts.Handlers,
	healthHandler *health.Handler,
	appMetrics *metrics.Metrics,
) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		authHandlers:  authHandlers,
		authService:   authService,
		postHandlers:  postHandlers,
		healthHandler: healthHandler,
		appMetrics:    appMetrics,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Operational endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.HealthHandler)
	r.mux.HandleFunc("GET /health/live", r.healthHandler.LivenessHandler)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.ReadinessHandler)
	r.mux.HandleFunc("GET /metrics", r.appMetrics.Handler())

	// Auth routes (no auth required)
	r.mux.HandleFunc("POST /api/v1/auth/signup", apperrors.HandleFunc(r.authHandlers.Signup))
	r.mux.HandleFunc("POST /api/v1/auth/login", apperrors.HandleFunc(r.authHandlers.Login))
	r.mux.HandleFunc("POST /api/v1/auth/refresh", apperrors.HandleFunc(r.authHandlers.Refresh))
	r.mux.HandleFunc("POST /api/v1/auth/logout", apperrors.HandleFunc(r.authHandlers.Logout))

	// Auth routes (auth required)
	r.mux.HandleFunc("GET /api/v1/auth/me", r.withAuth(apperrors.HandleFunc(r.authHandlers.Me)))

	// Post routes
	r.mux.HandleFunc("POST /api/v1/posts", r.withAuth(apperrors.HandleFunc(r.postHandlers.Create)))
	r.mux.HandleFunc("GET /api/v1/posts", apperrors.HandleFunc(r.postHandlers.List))
	r.mux.HandleFunc("GET /api/v1/posts/{id}", apperrors.HandleFunc(r.postHandlers.Get))
	r.mux.HandleFunc("PATCH /api/v1/posts/{id}", r.withAuth(apperrors.HandleFunc(r.postHandlers.Update)))
	r.mux.HandleFunc("DELETE /api/v1/posts/{id}", r.withAuth(apperrors.HandleFunc(r.postHandlers.Delete)))
}

func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	middleware := auth.Middleware(r.authService)
	return func(w http.ResponseWriter, req *http.Request) {
		middleware(http.HandlerFunc(next)).ServeHTTP(w, req)
	}
}
