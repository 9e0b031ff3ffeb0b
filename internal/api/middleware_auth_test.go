// ABOUTME: Tests for RequireAuthenticated middleware (JWT cookie + API key Bearer).
// ABOUTME: Uses package api to access unexported context keys and Server fields.
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/auth"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/testutil"
)

type authResult struct {
	status   int
	userID   uuid.UUID
	keyOrg   uuid.UUID
	keyLevel access.Level
	isKey    bool
}

func runAuth(srv *Server, req *http.Request) authResult {
	var res authResult
	h := srv.RequireAuthenticated()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.userID, _ = r.Context().Value(ctxUserID).(uuid.UUID)
		res.keyOrg, _ = r.Context().Value(ctxAPIKeyOrgID).(uuid.UUID)
		res.keyLevel, res.isKey = apiKeyLevelFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res.status = rec.Code
	return res
}

func TestRequireAuthenticated_NoCredentials_401(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	if res := runAuth(srv, httptest.NewRequest(http.MethodGet, "/", nil)); res.status != http.StatusUnauthorized {
		t.Errorf("no credentials: got %d, want 401", res.status)
	}
}

func TestRequireAuthenticated_JWT(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	userID := uuid.New()

	valid, err := auth.IssueAccessToken([]byte(testJWTSecret), userID, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expired, _ := auth.IssueAccessToken([]byte(testJWTSecret), userID, -time.Minute)
	foreign, _ := auth.IssueAccessToken([]byte("some-other-secret-of-sufficient-len"), userID, 15*time.Minute)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", valid, http.StatusOK},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong secret", foreign, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.token})
			res := runAuth(srv, req)
			if res.status != tc.status {
				t.Fatalf("got %d, want %d", res.status, tc.status)
			}
			if tc.status == http.StatusOK {
				if res.userID != userID {
					t.Errorf("ctxUserID = %v, want %v", res.userID, userID)
				}
				if res.isKey {
					t.Error("cookie session carries an API key cap")
				}
			}
		})
	}
}

func TestRequireAuthenticated_MalformedBearer_401(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-an-api-key")
	if res := runAuth(srv, req); res.status != http.StatusUnauthorized {
		t.Errorf("malformed bearer: got %d, want 401", res.status)
	}
}

func TestRequireAuthenticated_APIKey(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	srv := newTestServer(t, db.Store)

	user, err := db.EnsureUser(ctx, "integrations@example.org", "Integrations")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	org, err := db.CreateOrgWithMember(ctx, "Keyed Nonprofit", "nonprofit", user.ID)
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	rawKey, keyHash, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := db.CreateAPIKey(ctx, org.ID, user.ID, keyHash, "etl", "edit", nil)
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	res := runAuth(srv, req)
	if res.status != http.StatusOK {
		t.Fatalf("valid key: got %d, want 200", res.status)
	}
	if res.userID != user.ID || res.keyOrg != org.ID || !res.isKey || res.keyLevel != access.LevelEdit {
		t.Errorf("context = %+v, want user %v org %v level edit", res, user.ID, org.ID)
	}

	if _, err := db.RevokeAPIKey(ctx, org.ID, key.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	if res := runAuth(srv, req); res.status != http.StatusUnauthorized {
		t.Errorf("revoked key: got %d, want 401", res.status)
	}
}
