package middleware

import (
	"net/http"
	"time"

	"github.com/flipline/flipline/internal/auth"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns the rate limit for login and magic-link
// endpoints (10 requests per minute per IP).
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
	}
}

// DefaultAPIRateLimit returns the general per-IP limit for the API surface.
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 300,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// RateLimitAPI rate limits the general API surface. Anonymous requests are
// keyed and limited by client IP; requests carrying a session cookie are
// keyed by the cookie value with double the ceiling, so clients behind a
// shared NAT do not exhaust each other's budget once signed in.
func RateLimitAPI(config RateLimitConfig) func(next http.Handler) http.Handler {
	anonymous := RateLimitByIP(config)
	session := httprate.Limit(
		config.RequestsPerMinute*2,
		1*time.Minute,
		httprate.WithKeyFuncs(sessionCookieKey),
		httprate.WithLimitHandler(limitExceeded),
	)

	return func(next http.Handler) http.Handler {
		anonymousNext := anonymous(next)
		sessionNext := session(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(auth.SessionCookieName); err == nil {
				sessionNext.ServeHTTP(w, r)
				return
			}
			anonymousNext.ServeHTTP(w, r)
		})
	}
}

func sessionCookieKey(r *http.Request) (string, error) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}
