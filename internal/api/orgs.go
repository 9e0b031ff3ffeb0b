// ABOUTME: HTTP handlers for organizations: self-service create, detail, the caller's orgs,
// ABOUTME: and the platform-wide org directory gated on the platform_admin tool.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
)

// createOrgBody is the JSON request body for POST /api/v1/orgs.
type createOrgBody struct {
	Name    string `json:"name"`
	OrgType string `json:"org_type"`
}

// orgResponseBody is the JSON representation of an organization.
type orgResponseBody struct {
	OrgID     string `json:"org_id"`
	Name      string `json:"name"`
	OrgType   string `json:"org_type"`
	CreatedAt string `json:"created_at"`
}

func toOrgResponse(o store.Organization) orgResponseBody {
	return orgResponseBody{
		OrgID:     o.ID.String(),
		Name:      o.Name,
		OrgType:   o.OrgType,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: encode failed", "error", err)
	}
}

// createOrgHandler handles POST /api/v1/orgs.
// Creates a new org of a self-service type and adds the caller as a member.
func (srv *Server) createOrgHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// API keys act inside one org; they cannot mint new ones.
	if _, isKey := r.Context().Value(ctxAPIKeyOrgID).(uuid.UUID); isKey {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req createOrgBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	orgType, err := access.ParseOrgType(req.OrgType)
	if err != nil {
		http.Error(w, "invalid org_type", http.StatusBadRequest)
		return
	}
	if !orgType.SelfService() {
		http.Error(w, "forbidden: org type cannot be self-provisioned", http.StatusForbidden)
		return
	}

	org, err := srv.store.CreateOrgWithMember(r.Context(), req.Name, orgType.String(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "create org", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toOrgResponse(*org))
}

// getOrgHandler handles GET /api/v1/orgs/{org_id}.
// Membership is enforced by RequireOrgProfile.
func (srv *Server) getOrgHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	org, err := srv.store.GetOrgByID(r.Context(), profile.OrgID)
	if err != nil {
		slog.ErrorContext(r.Context(), "get org", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if org == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toOrgResponse(*org))
}

// listMyOrgsHandler handles GET /api/v1/me/orgs.
func (srv *Server) listMyOrgsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orgs, err := srv.store.ListUserOrgs(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list user orgs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// An API key only sees its own org.
	keyOrg, isKey := r.Context().Value(ctxAPIKeyOrgID).(uuid.UUID)
	out := make([]orgResponseBody, 0, len(orgs))
	for _, o := range orgs {
		if isKey && o.ID != keyOrg {
			continue
		}
		out = append(out, toOrgResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

const (
	defaultOrgPageSize = 50
	maxOrgPageSize     = 200
)

// orgPage is the response body for the platform org directory.
type orgPage struct {
	Orgs      []orgResponseBody `json:"orgs"`
	NextAfter string            `json:"next_after,omitempty"`
}

var errBadQuery = errors.New("bad query")

func parseListOrgsQuery(r *http.Request) (store.ListOrgsParams, error) {
	q := r.URL.Query()
	p := store.ListOrgsParams{Limit: defaultOrgPageSize}
	if v := q.Get("org_type"); v != "" {
		ot, err := access.ParseOrgType(v)
		if err != nil {
			return p, errBadQuery
		}
		name := ot.String()
		p.OrgType = &name
	}
	if v := q.Get("after"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return p, errBadQuery
		}
		p.AfterID = &id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxOrgPageSize {
			return p, errBadQuery
		}
		p.Limit = n
	}
	return p, nil
}

// listAllOrgsHandler handles GET /api/v1/orgs/{org_id}/platform/orgs.
// Gated on platform_admin (view) by RequireTool; lists every org with keyset pagination.
func (srv *Server) listAllOrgsHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parseListOrgsQuery(r)
	if err != nil {
		http.Error(w, "invalid org_type, after, or limit", http.StatusBadRequest)
		return
	}

	limit := params.Limit
	params.Limit = limit + 1
	orgs, err := srv.store.ListOrgs(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "list orgs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var page orgPage
	if len(orgs) > limit {
		orgs = orgs[:limit]
		page.NextAfter = orgs[limit-1].ID.String()
	}
	page.Orgs = make([]orgResponseBody, 0, len(orgs))
	for _, o := range orgs {
		page.Orgs = append(page.Orgs, toOrgResponse(o))
	}
	writeJSON(w, http.StatusOK, page)
}
