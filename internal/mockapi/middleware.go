package mockapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Failures makes chosen endpoints answer with an error status, for exercising
// client failure paths.
type Failures struct {
	mu    sync.RWMutex
	rules map[string]int
}

// Fail makes every request matching method and path answer with status.
func (f *Failures) Fail(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rules == nil {
		f.rules = make(map[string]int)
	}
	f.rules[method+" "+path] = status
}

// Clear removes all injected failures.
func (f *Failures) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

func (f *Failures) lookup(r *http.Request) (int, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	status, ok := f.rules[r.Method+" "+r.URL.Path]
	return status, ok
}

// Middleware answers matching requests with the injected status.
func (f *Failures) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, ok := f.lookup(r); ok {
			slog.Warn("injected failure", "method", r.Method, "path", r.URL.Path, "status", status)
			jsonError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
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

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
