package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/erazemk/paintstock/internal/auth"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

type contextKey string

const (
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "request_id"
)

// IdentifyMiddleware resolves who is calling and stores the actor in the
// request context. A bearer token wins; without one the userName field of
// a JSON body is resolved, so admins can act by sending the admin secret
// as their name. Requests with neither run as model.Anonymous.
func IdentifyMiddleware(secret string, q store.Querier, resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if header := r.Header.Get("Authorization"); header != "" {
				tokenStr, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					jsonError(w, http.StatusUnauthorized, "invalid authorization header")
					return
				}
				claims, err := auth.ValidateToken(secret, tokenStr)
				if err != nil {
					jsonError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				revoked, err := store.IsTokenRevoked(ctx, q, claims.ID)
				if err != nil {
					serviceError(w, r, err)
					return
				}
				if revoked {
					jsonError(w, http.StatusUnauthorized, "token has been revoked")
					return
				}
				ctx = context.WithValue(ctx, claimsKey, claims)
				next.ServeHTTP(w, r.WithContext(model.WithActor(ctx, claims.Actor())))
				return
			}

			actor := model.Anonymous
			if r.Body != nil && r.ContentLength != 0 {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
				if err != nil {
					jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if name := gjson.GetBytes(body, "userName"); name.Type == gjson.String {
					actor = resolver.Resolve(name.String())
				}
			}
			next.ServeHTTP(w, r.WithContext(model.WithActor(ctx, actor)))
		})
	}
}

// GetClaims retrieves the JWT claims from the context, if the request
// carried a token.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// RequestID returns the id assigned to the request by LoggingMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware tags the request with an X-Request-ID and logs method,
// path, status and duration once it completes.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", rec.status,
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", id,
			)
		})
	}
}

// RateLimiter throttles requests per client address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Forget everyone once the table gets large; idle clients refill anyway.
	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler returns the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl == nil || rl.rate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}
		if !rl.limiter(key).Allow() {
			slog.Warn("rate limit exceeded", "remote", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			jsonError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
