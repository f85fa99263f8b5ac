package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the same failure envelope the handlers use.
func writeError(w http.ResponseWriter, status int, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
