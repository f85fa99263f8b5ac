package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/todo-store/internal/middleware"
)

func TestCORS(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"wildcard simple request", []string{"*"}, http.MethodGet, "https://app.example.com", "*", http.StatusOK},
		{"allowed origin", []string{"https://app.example.com"}, http.MethodGet, "https://app.example.com", "https://app.example.com", http.StatusOK},
		{"disallowed origin", []string{"https://app.example.com"}, http.MethodGet, "https://evil.example.com", "", http.StatusOK},
		{"preflight", []string{"*"}, http.MethodOptions, "https://app.example.com", "*", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/todos", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			w := httptest.NewRecorder()

			middleware.CORS(tt.origins)(inner).ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected Access-Control-Allow-Origin=%q, got %q", tt.wantOrigin, got)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
