package handlers

import (
	"encoding/json"
	"net/http"

	"venuemap/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

// writeValidationErrors reports field errors as 422 with the messages keyed
// by JSON field name.
func writeValidationErrors(w http.ResponseWriter, fields models.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":   "validation_error",
		"message": "Validation failed",
		"fields":  fields,
	})
}

// writeAPIFailure is the envelope of the public location endpoints.
func writeAPIFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.APIFailure{Success: false, Error: message})
}
