// ABOUTME: RequireOrgProfile middleware — resolves org membership into an access.Profile.
// ABOUTME: API keys are pinned to their own org; stored org types are parsed, never defaulted.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

// RequireOrgProfile returns a middleware that verifies the authenticated user is a
// member of the org in the URL ({org_id}) and injects the resulting access.Profile
// as ctxProfile. API key requests are refused for any org other than the key's own.
//
// Must run after RequireAuthenticated.
func (srv *Server) RequireOrgProfile() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
			if err != nil {
				http.Error(w, "invalid org_id", http.StatusBadRequest)
				return
			}

			if keyOrg, ok := r.Context().Value(ctxAPIKeyOrgID).(uuid.UUID); ok && keyOrg != orgID {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			orgType, err := srv.store.GetMemberOrgType(r.Context(), orgID, userID)
			if err != nil {
				slog.ErrorContext(r.Context(), "lookup org membership", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if orgType == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			profile, err := access.NewProfile(userID, orgID, *orgType)
			if err != nil {
				slog.ErrorContext(r.Context(), "stored org type rejected", "org_id", orgID, "error", err)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxProfile, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
