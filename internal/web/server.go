// Package web provides the HTTP server and JSON handlers for the recipe API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/config"
	"github.com/JonMunkholm/recipebox/internal/feedback"
	"github.com/JonMunkholm/recipebox/internal/metrics"
	"github.com/JonMunkholm/recipebox/internal/profile"
	"github.com/JonMunkholm/recipebox/internal/recommend"
	"github.com/JonMunkholm/recipebox/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
)

// Deps are the services the handlers call.
type Deps struct {
	Catalog     *catalog.Store
	Recommender *recommend.Service
	Feedback    *feedback.Store
	Profiles    *profile.Store

	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics

	// RemoteState reports the recommendation breaker state; nil when no
	// recommendation service is configured.
	RemoteState func() string
}

// Server is the HTTP server for the recipe API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}

	// Security hardening
	s.router.Use(securityHeaders)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if s.cfg.Rate.Enabled && s.cfg.Rate.RequestsPerMinute > 0 {
		s.router.Use(httprate.Limit(
			s.cfg.Rate.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(s.handleRateLimited),
		))
	}

	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.Middleware)
	}

	s.router.Use(middleware.Identity(middleware.NewTokenVerifier(s.cfg.Security.TokenSecret)))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Catalog
		r.Get("/recipes", s.handleListRecipes)
		r.Get("/recipes/{id}", s.handleGetRecipe)
		r.Get("/cuisines", s.handleCuisines)

		// Recommendations
		r.Post("/recommend", s.handleRecommend)

		// Feedback and profile
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Post("/recipes/{id}/like", s.handleLike)
			r.Post("/recipes/{id}/dislike", s.handleDislike)
			r.Get("/user/liked-recipes", s.handleLikedRecipes)
			r.Get("/user/disliked-recipes", s.handleDislikedRecipes)
			r.Get("/user/profile", s.handleGetProfile)
			r.Put("/user/profile", s.handleUpdateProfile)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))
			r.Post("/admin/catalog/reload", s.handleReload)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// JSON only; nothing should be loaded from a response
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	s.respondError(w, r, errRateLimited)
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON and writes it with status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
