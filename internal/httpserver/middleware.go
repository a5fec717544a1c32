// internal/httpserver/middleware.go
//
// Cross-cutting request middleware: JSON content type, credentialed CORS,
// per-client rate limiting, and request tracing. Auth middleware lives in
// auth.go next to the rest of the auth plumbing.

package httpserver

import (
	"net"
	"net/http"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jlfenwick/wordrow/internal/telemetry"
)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateFromEnv reads the mutating-route budget from RATE_LIMIT_RPS and
// RATE_LIMIT_BURST.
func rateFromEnv() (rate.Limit, int) {
	return rate.Limit(envInt("RATE_LIMIT_RPS", 20)), envInt("RATE_LIMIT_BURST", 40)
}

// rateLimit applies a token-bucket limit per client. Clients are keyed by
// authenticated user ID when present, otherwise by remote IP (after RealIP).
// Buckets live for the life of the process.
func rateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
	)
	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := buckets[key]
		if !ok {
			l = rate.NewLimiter(rps, burst)
			buckets[key] = l
		}
		return l
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}
			if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
				key = me.ID
			}
			if !limiterFor(key).Allow() {
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tracing opens one server span per request. Spans are recorded only when
// telemetry.Setup has installed a real provider; otherwise they are no-ops.
func tracing(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tr := telemetry.Tracer(component)
			ctx, span := tr.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			next.ServeHTTP(w, r.WithContext(ctx))
			span.End()
		})
	}
}
