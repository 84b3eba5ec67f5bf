package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody has the same shape as the handlers' error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSONError writes an uncacheable JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
