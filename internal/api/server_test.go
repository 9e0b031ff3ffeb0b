// ABOUTME: Tests for router wiring that need no database: huma catalog routes,
// ABOUTME: /healthz degradation, /metrics exposition, and security headers.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/config"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
)

const testJWTSecret = "api-test-secret-at-least-32-bytes!"

// newTestServer builds a Server over the default capability table.
// s may be nil for tests that never reach the database.
func newTestServer(t *testing.T, s *store.Store, opts ...access.Option) *Server {
	t.Helper()
	opts = append([]access.Option{access.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	resolver, err := access.NewResolver(access.DefaultTable(), access.DefaultCatalog(), opts...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	cfg := &config.Config{JWTSecret: testJWTSecret} //nolint:exhaustruct // test: only JWT secret needed
	srv, err := NewServer(s, cfg, resolver)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewServer_NilResolver(t *testing.T) {
	t.Parallel()
	if _, err := NewServer(nil, &config.Config{}, nil); err == nil { //nolint:exhaustruct // test
		t.Error("NewServer with nil resolver: want error")
	}
}

func TestListTools_CatalogOrder(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Handler()

	rec := get(t, h, "/api/v1/tools")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /tools: got %d, want 200; body=%s", rec.Code, rec.Body)
	}
	var items []ToolItem
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tools := access.Tools()
	if len(items) != len(tools) {
		t.Fatalf("got %d tools, want %d", len(items), len(tools))
	}
	for i, tl := range tools {
		if items[i].Name != tl.String() {
			t.Errorf("items[%d] = %s, want %s", i, items[i].Name, tl)
		}
		if items[i].Category == "" || items[i].Label == "" {
			t.Errorf("%s: missing display config: %+v", tl, items[i])
		}
	}
}

func TestListOrgTypes(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Handler()

	rec := get(t, h, "/api/v1/org-types")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /org-types: got %d", rec.Code)
	}
	var items []OrgTypeItem
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != len(access.OrgTypes()) {
		t.Fatalf("got %d org types, want %d", len(items), len(access.OrgTypes()))
	}
	for _, it := range items {
		if want := it.Name != "admin"; it.SelfService != want {
			t.Errorf("%s: self_service = %v, want %v", it.Name, it.SelfService, want)
		}
	}
}

func TestOrgTypeTools_CHW(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Handler()

	rec := get(t, h, "/api/v1/org-types/chw/tools")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200; body=%s", rec.Code, rec.Body)
	}
	var body ToolAccessBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OrgType != "chw" || body.OpenPolicy {
		t.Errorf("body = %+v", body)
	}

	levels := make(map[string]string)
	for _, g := range body.Groups {
		for _, tl := range g.Tools {
			levels[tl.Name] = tl.Level
		}
	}
	if levels["grant_management"] != "view" {
		t.Errorf("grant_management level = %q, want view", levels["grant_management"])
	}
	if _, ok := levels["platform_admin"]; ok {
		t.Error("platform_admin visible to chw")
	}
	if _, ok := levels["datasets"]; ok {
		t.Error("datasets visible to chw")
	}
}

func TestOrgTypeTools_UnknownOrgType_422(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Handler()

	if rec := get(t, h, "/api/v1/org-types/hospital/tools"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown org type: got %d, want 422", rec.Code)
	}
}

func TestOrgTypeTools_OpenPolicyFlag(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil, access.WithOpenPolicy()).Handler()

	rec := get(t, h, "/api/v1/org-types/chw/tools")
	var body ToolAccessBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OpenPolicy {
		t.Error("open_policy = false under open resolver")
	}
	n := 0
	for _, g := range body.Groups {
		n += len(g.Tools)
	}
	if n != len(access.Tools()) {
		t.Errorf("open policy shows %d tools, want %d", n, len(access.Tools()))
	}
}

func TestHealthz_NoStoreDegraded(t *testing.T) {
	t.Parallel()
	rec := get(t, newTestServer(t, nil).Handler(), "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz without store: got %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestMetrics_ExposesDecisionCounter(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.metrics.observe(access.ToolReports, false)

	rec := get(t, srv.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `chwone_access_decisions_total{result="denied",tool="reports"} 1`) {
		t.Errorf("decision counter missing from exposition:\n%s", rec.Body)
	}
}
