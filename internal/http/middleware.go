package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	subjectIDContextKey contextKey = "subjectID"
	authTokenContextKey contextKey = "authToken"
	requestIDContextKey contextKey = "requestID"
)

// SubjectIDFromContext returns the authenticated subject id, if any.
func SubjectIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subjectIDContextKey).(string)
	return id, ok
}

// AuthTokenFromContext returns the raw bearer token. The sync path forwards
// it to the external source, which authenticates the subject itself.
func AuthTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(authTokenContextKey).(string)
	return token
}

// requestIDMiddleware stamps every request with an id for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logMiddleware logs one line per request after it completes.
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		requestID, _ := r.Context().Value(requestIDContextKey).(string)
		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// authMiddleware validates the bearer JWT and puts the subject id plus the
// raw token into the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendJSONError(w, "unauthorized", "Authorization header required", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			slog.WarnContext(r.Context(), "Token validation failed",
				"path", r.URL.Path,
				"error", err)
			sendJSONError(w, "unauthorized", "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if claims.Subject == "" {
			sendJSONError(w, "unauthorized", "Token has no subject", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectIDContextKey, claims.Subject)
		ctx = context.WithValue(ctx, authTokenContextKey, tokenString)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimiter keeps one token bucket per subject. Buckets idle for longer
// than staleAfter are pruned by a background janitor.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*subjectLimiter
	limit    rate.Limit
	burst    int
	stop     chan struct{}
}

type subjectLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterStaleAfter = 10 * time.Minute

func newRateLimiter(interval time.Duration, burst int) *rateLimiter {
	rl := &rateLimiter{
		limiters: make(map[string]*subjectLimiter),
		limit:    rate.Every(interval),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &subjectLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterStaleAfter)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-limiterStaleAfter)
			for key, entry := range rl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) Stop() {
	close(rl.stop)
}

// rateLimitMiddleware throttles per authenticated subject, falling back to
// the remote address before auth has run.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := SubjectIDFromContext(r.Context())
		if !ok {
			key = r.RemoteAddr
		}
		if !s.limiter.allow(key) {
			sendJSONError(w, "rate_limited", "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
