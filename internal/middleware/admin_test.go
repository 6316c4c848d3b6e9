package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/utils"
)

const testJWTSecret = "jwt-test-secret"

func runAdminAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var scope string
	h := AdminAuth(testJWTSecret)(func(c echo.Context) error {
		scope, _ = AdminScope(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, scope
}

func TestAdminAuthAcceptsValidSession(t *testing.T) {
	t.Parallel()
	tok, err := utils.NewAdminToken(testJWTSecret, "perf-1", 15)
	if err != nil {
		t.Fatalf("NewAdminToken: %v", err)
	}

	rec, scope := runAdminAuth(t, "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if scope != "perf-1" {
		t.Fatalf("scope = %q, want perf-1", scope)
	}
}

func TestAdminAuthRejections(t *testing.T) {
	t.Parallel()
	wrongSecret, err := utils.NewAdminToken("some-other-secret", "perf-1", 15)
	if err != nil {
		t.Fatalf("NewAdminToken: %v", err)
	}
	expired, err := utils.NewAdminToken(testJWTSecret, "perf-1", -5)
	if err != nil {
		t.Fatalf("NewAdminToken: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing secret", "Bearer " + wrongSecret.Token},
		{"expired session", "Bearer " + expired.Token},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec, _ := runAdminAuth(t, tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status %d, want 401", rec.Code)
			}
		})
	}
}
