// ABOUTME: Unit tests for the CSRF header middleware.
// ABOUTME: Cookie-authenticated state-changing requests require X-Requested-By.
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCSRFProtect(t *testing.T) {
	t.Parallel()
	h := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		method string
		cookie bool
		header string
		want   int
	}{
		{"safe method with cookie", http.MethodGet, true, "", http.StatusOK},
		{"cookie post without header", http.MethodPost, true, "", http.StatusForbidden},
		{"cookie delete with wrong header", http.MethodDelete, true, "SomethingElse", http.StatusForbidden},
		{"cookie post with header", http.MethodPost, true, csrfHeaderValue, http.StatusOK},
		{"bearer post without header", http.MethodPost, false, "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, "/orgs", nil)
			if tc.cookie {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: "x"})
			}
			if tc.header != "" {
				req.Header.Set("X-Requested-By", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
