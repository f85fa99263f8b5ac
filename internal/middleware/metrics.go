package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RequestObserver receives one observation per handled request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

func Metrics(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			observer.ObserveRequest(r.Method, RouteLabel(r.URL.Path), rec.statusCode, time.Since(start))
		})
	}
}

// RouteLabel maps a request path to a bounded set of route names so that
// todo ids do not become label values.
func RouteLabel(p string) string {
	p = strings.TrimSuffix(p, "/")
	switch p {
	case "/health", "/metrics", "/api/todos", "/api/todos/stats":
		return p
	}

	if id, ok := strings.CutPrefix(p, "/api/todos/"); ok && !strings.Contains(id, "/") {
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			return "/api/todos/{id}"
		}
	}
	return "unmatched"
}
