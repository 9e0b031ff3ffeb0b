// ABOUTME: RequireTool middleware — gates a route on the resolver's tool decision.
// ABOUTME: The effective level is the org type's level capped by any API key max_level.
package api

import (
	"context"
	"net/http"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

// effectiveLevel is the level the request holds on tool: the resolver's level
// for the profile's org type, lowered to the API key cap when one is present.
func (srv *Server) effectiveLevel(ctx context.Context, p access.Profile, tool access.Tool) access.Level {
	level := srv.resolver.MaxLevel(p.OrgType, tool)
	if keyLevel, ok := apiKeyLevelFrom(ctx); ok && keyLevel < level {
		level = keyLevel
	}
	return level
}

// allowed applies the same rules as Resolver.CanAccessTool to the effective level.
func (srv *Server) allowed(ctx context.Context, p access.Profile, tool access.Tool, required access.Level) bool {
	if !srv.resolver.CanAccessTool(p.OrgType, tool, required) {
		return false
	}
	if required < access.LevelView {
		required = access.LevelView
	}
	return srv.effectiveLevel(ctx, p, tool) >= required
}

// RequireTool returns a middleware that admits the request only when the
// caller's profile holds at least required on tool. On success it injects the
// effective level as ctxLevel.
//
// Must run after RequireOrgProfile.
func (srv *Server) RequireTool(tool access.Tool, required access.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := profileFrom(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			granted := srv.allowed(r.Context(), profile, tool, required)
			srv.metrics.observe(tool, granted)
			if !granted {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxLevel, srv.effectiveLevel(r.Context(), profile, tool))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
