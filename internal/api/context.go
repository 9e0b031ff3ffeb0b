// ABOUTME: Request context key types and constants for the api package.
// ABOUTME: Used by middleware to inject auth state and by handlers to read it.
package api

import (
	"context"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

type contextKey int

const (
	ctxUserID      contextKey = iota // uuid.UUID — authenticated user
	ctxProfile                       // access.Profile — built by RequireOrgProfile
	ctxLevel                         // access.Level — effective level on the gated tool
	ctxAPIKeyOrgID                   // uuid.UUID — org the API key belongs to
	ctxAPIKeyLevel                   // access.Level — max_level of the API key (caps org level)
)

// profileFrom returns the Profile injected by RequireOrgProfile.
func profileFrom(ctx context.Context) (access.Profile, bool) {
	p, ok := ctx.Value(ctxProfile).(access.Profile)
	return p, ok
}

// apiKeyLevelFrom returns the API key cap, if the request is API-key-authenticated.
func apiKeyLevelFrom(ctx context.Context) (access.Level, bool) {
	l, ok := ctx.Value(ctxAPIKeyLevel).(access.Level)
	return l, ok
}
