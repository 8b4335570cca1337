package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"gitstart-analyzer/internal/models"
)

// writeJSON encodes a payload with the right content type
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError sends the generic error payload
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.BasicResponse{
		Message: message,
		Status:  "error",
	})
}

// isFileError reports whether the failure came from reading the local file
// rather than from the upstream model
func isFileError(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr)
}
