package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/agroregistry/internal/security/auth"
	"github.com/yourorg/agroregistry/internal/security/ratelimit"
)

func corsTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Preflight requests have no Authorization header. The auth and rate
// limit layers must let them through so the CORS handler can answer.
func TestPreflightBypassesAuth(t *testing.T) {
	tm := auth.NewTokenManager("middleware-test-secret-long-en!!", "test", time.Hour)
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	chain := JWTMiddleware(tm, nil)(
		RateLimitMiddleware(limiter, nil)(corsTestHandler()),
	)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/pending-clusters", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected CORS origin header, got %q", got)
	}
}

func TestProtectedPathStillRequiresToken(t *testing.T) {
	tm := auth.NewTokenManager("middleware-test-secret-long-en!!", "test", time.Hour)
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	chain := JWTMiddleware(tm, nil)(
		RateLimitMiddleware(limiter, nil)(corsTestHandler()),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pending-clusters", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestPublicPathNeedsNoToken(t *testing.T) {
	tm := auth.NewTokenManager("middleware-test-secret-long-en!!", "test", time.Hour)

	chain := JWTMiddleware(tm, nil)(corsTestHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/agrodata", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on the public feed, got %d", rec.Code)
	}
}
