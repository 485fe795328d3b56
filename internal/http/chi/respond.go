package chi

import (
	"encoding/json"
	"net/http"
)

/* HTTP layer DTOs for the lead API
 * Separate from domain entities to avoid leaking internal structure
 */

// errorResponse is the body of every non-2xx answer
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
