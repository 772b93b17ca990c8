// Package endpoints defines every HTTP route the weaver server exposes,
// together with the CLI command that calls it.
package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorResponse is the plain error envelope for infrastructure failures
// (bad route, uninitialized service). Domain failures use their own coded
// envelopes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a plain error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// bearerToken extracts the bearer token from the Authorization header;
// empty when absent. Tokens are always passed explicitly from here down,
// never stored in shared state.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
