// ABOUTME: HTTP server struct, constructor, and handler wiring for CHWOne.
// ABOUTME: Holds the store, config, access resolver, rate limiter and metrics used by handlers.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/config"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
)

// Server holds the dependencies for the HTTP layer.
type Server struct {
	store       *store.Store
	cfg         *config.Config
	resolver    *access.Resolver
	rateLimiter *ipRateLimiter
	metrics     *serverMetrics
}

// NewServer creates a Server. The resolver is shared by every request and
// must already be validated (see access.NewResolver).
func NewServer(s *store.Store, cfg *config.Config, resolver *access.Resolver) (*Server, error) {
	if resolver == nil {
		return nil, fmt.Errorf("new server: nil access resolver")
	}
	m, err := newServerMetrics()
	if err != nil {
		return nil, fmt.Errorf("new server: register metrics: %w", err)
	}
	evictTTL := cfg.RateLimitEvictTTL
	if evictTTL == 0 {
		evictTTL = 15 * time.Minute
	}
	// 10 requests per minute, burst of 10.
	rl := newIPRateLimiter(rate.Limit(10.0/60), 10, evictTTL)
	return &Server{
		store:       s,
		cfg:         cfg,
		resolver:    resolver,
		rateLimiter: rl,
		metrics:     m,
	}, nil
}

// Handler builds and returns the http.Handler.
func (srv *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Security headers first so they appear on every response including errors.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestSize(1 << 20))
	r.Use(middleware.Recoverer)

	// ── Infrastructure endpoints ──────────────────────────────────────────────
	r.Get("/healthz", healthzHandler(srv.store))
	r.Handle("/metrics", srv.metrics.handler())

	// ── API v1 sub-router with huma (OpenAPI 3.1) ────────────────────────────
	apiRouter := chi.NewRouter()
	humaConfig := huma.DefaultConfig("CHWOne API", "0.1.0")
	humaConfig.Info.Description = "Community health worker platform: organizations and tool access"
	api := humachi.New(apiRouter, humaConfig)
	registerToolRoutes(api, srv.resolver)

	apiRouter.With(srv.RequireAuthenticated()).Get("/me/orgs", srv.listMyOrgsHandler)

	// ── Org routes (chi, not huma, for per-route tool gating) ────────────────
	apiRouter.Route("/orgs", func(r chi.Router) {
		r.Use(csrfProtect)
		r.Use(srv.RequireAuthenticated())
		r.With(srv.rateLimit()).Post("/", srv.createOrgHandler)

		r.Route("/{org_id}", func(r chi.Router) {
			r.Use(srv.RequireOrgProfile())
			r.Get("/", srv.getOrgHandler)

			r.Get("/tools", srv.orgToolsHandler)
			r.Get("/tools/{tool}", srv.checkToolHandler)

			r.Route("/api-keys", func(r chi.Router) {
				r.With(srv.RequireTool(access.ToolOrgSettings, access.LevelAdmin)).Post("/", srv.createAPIKeyHandler)
				r.With(srv.RequireTool(access.ToolOrgSettings, access.LevelView)).Get("/", srv.listAPIKeysHandler)
				r.With(srv.RequireTool(access.ToolOrgSettings, access.LevelAdmin)).Delete("/{id}", srv.revokeAPIKeyHandler)
			})

			r.With(srv.RequireTool(access.ToolPlatformAdmin, access.LevelView)).Get("/platform/orgs", srv.listAllOrgsHandler)
		})
	})

	r.Mount("/api/v1", apiRouter)

	return r
}

// healthResponse is the JSON body for /healthz.
type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

// healthzHandler returns 200 {"status":"ok"} when the DB is reachable,
// or 503 {"status":"degraded","db":"unavailable"} when it is not.
func healthzHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		statusCode := http.StatusOK

		if s == nil {
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		} else if err := s.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "healthz: db ping failed", "error", err)
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(r.Context(), "healthz: failed to encode response", "error", err)
		}
	}
}
