package helpers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genes8/docuguard/internal/apierr"
)

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// RespondError writes an error response with the given status code and message.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{
		"error": message,
	})
}

// RespondAPIErr writes a typed apierr.Error using the shared taxonomy
// status mapping, so handlers never have to pick their own status code for
// an error a core package already classified.
func RespondAPIErr(w http.ResponseWriter, err error) {
	status := apierr.StatusForErr(err)
	if apiErr, ok := err.(*apierr.Error); ok && apiErr.Code == apierr.CodeRateLimited && apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(apiErr.RetryAfter))
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}
