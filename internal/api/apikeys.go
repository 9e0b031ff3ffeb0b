// ABOUTME: HTTP handlers for API key management: create, list, revoke.
// ABOUTME: Gated on the org_settings tool; a key's max_level never exceeds the creator's level.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/auth"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
)

// createAPIKeyBody is the JSON request body for POST /api/v1/orgs/{org_id}/api-keys.
type createAPIKeyBody struct {
	Name      string `json:"name"`
	MaxLevel  string `json:"max_level"`
	ExpiresAt string `json:"expires_at,omitempty"` // RFC3339; omit for a never-expiring key
}

// createAPIKeyResponse is the JSON response body for POST /api/v1/orgs/{org_id}/api-keys.
// raw_key is shown exactly once and cannot be retrieved again.
type createAPIKeyResponse struct {
	apiKeyEntry
	RawKey string `json:"raw_key"`
}

// apiKeyEntry is one row in the GET /api-keys response.
// Never contains raw_key or key_hash.
type apiKeyEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MaxLevel   string `json:"max_level"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	RevokedAt  string `json:"revoked_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toAPIKeyEntry(k store.APIKey) apiKeyEntry {
	return apiKeyEntry{
		ID:         k.ID.String(),
		Name:       k.Name,
		MaxLevel:   k.MaxLevel,
		ExpiresAt:  formatOptionalTime(k.ExpiresAt),
		LastUsedAt: formatOptionalTime(k.LastUsedAt),
		RevokedAt:  formatOptionalTime(k.RevokedAt),
		CreatedAt:  k.CreatedAt.Format(time.RFC3339),
	}
}

// createAPIKeyHandler handles POST /api/v1/orgs/{org_id}/api-keys.
// Requires org_settings admin. max_level must be view, edit, or admin and no
// higher than the caller's effective level on org_settings.
func (srv *Server) createAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	callerLevel, ok := r.Context().Value(ctxLevel).(access.Level)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAPIKeyBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	maxLevel, err := access.ParseLevel(req.MaxLevel)
	if err != nil || maxLevel == access.LevelNone {
		http.Error(w, "max_level must be view, edit, or admin", http.StatusBadRequest)
		return
	}
	if maxLevel > callerLevel {
		http.Error(w, "forbidden: requested max_level exceeds your level", http.StatusForbidden)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			http.Error(w, "invalid expires_at: use RFC3339 format", http.StatusBadRequest)
			return
		}
		if !t.After(time.Now()) {
			http.Error(w, "expires_at must be in the future", http.StatusBadRequest)
			return
		}
		expiresAt = &t
	}

	rawKey, keyHash, err := auth.GenerateAPIKey()
	if err != nil {
		slog.ErrorContext(r.Context(), "generate api key", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	key, err := srv.store.CreateAPIKey(r.Context(), profile.OrgID, profile.UserID, keyHash, req.Name, maxLevel.String(), expiresAt)
	if err != nil {
		slog.ErrorContext(r.Context(), "create api key", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createAPIKeyResponse{apiKeyEntry: toAPIKeyEntry(*key), RawKey: rawKey})
}

// listAPIKeysHandler handles GET /api/v1/orgs/{org_id}/api-keys.
// Requires org_settings view. Never returns key_hash or raw_key.
func (srv *Server) listAPIKeysHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := srv.store.ListOrgAPIKeys(r.Context(), profile.OrgID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list api keys", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	entries := make([]apiKeyEntry, 0, len(rows))
	for _, k := range rows {
		entries = append(entries, toAPIKeyEntry(k))
	}
	writeJSON(w, http.StatusOK, entries)
}

// revokeAPIKeyHandler handles DELETE /api/v1/orgs/{org_id}/api-keys/{id}.
// Requires org_settings admin.
func (srv *Server) revokeAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	revoked, err := srv.store.RevokeAPIKey(r.Context(), profile.OrgID, keyID)
	if err != nil {
		slog.ErrorContext(r.Context(), "revoke api key", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !revoked {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
