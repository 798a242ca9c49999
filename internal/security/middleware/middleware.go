package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/agroregistry/internal/domain"
	"github.com/yourorg/agroregistry/internal/security/auth"
	"github.com/yourorg/agroregistry/internal/security/ratelimit"
)

type PrincipalContextKey struct{}

// publicPath reports whether a request needs no bearer credential:
// health/metrics, the anonymous auth endpoints, and the public region
// dashboard feed.
func publicPath(path string) bool {
	return path == "/" || path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		path == "/api/agrodata" ||
		strings.HasPrefix(path, "/api/auth/")
}

// JWTMiddleware resolves the caller's principal from the Authorization
// header and stores it in the request context.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflights carry no Authorization header; they must
			// reach the CORS handler to be answered.
			if r.Method == http.MethodOptions || publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Warn("token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			principal := &domain.Principal{
				Username:  claims.Username,
				Role:      claims.Role,
				ClusterID: claims.ClusterID,
			}
			ctx := context.WithValue(r.Context(), PrincipalContextKey{}, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware throttles the anonymous auth endpoints per
// client address. Authenticated traffic is limited per username.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if strings.HasPrefix(r.URL.Path, "/api/auth/") {
				if !limiter.AllowStrict(clientKey(r), 10, limiter.Window()) {
					log.Warn("auth rate limit exceeded", slog.String("remote", r.RemoteAddr))
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)
			if p := GetPrincipalFromContext(r.Context()); p != nil {
				key = p.Username
			}
			if !limiter.Allow(key) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

// GetPrincipalFromContext returns the resolved caller, nil for
// anonymous requests.
func GetPrincipalFromContext(ctx context.Context) *domain.Principal {
	if p := ctx.Value(PrincipalContextKey{}); p != nil {
		return p.(*domain.Principal)
	}
	return nil
}
