package middleware

import (
	"encoding/json"
	"net/http"
)

const contentTypeJSON = "application/json;charset=UTF-8"

// ErrorBody is the JSON shape of every authentication failure.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const msgUnauthorized = "Unauthorized"

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"success":false,"message":msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Success: false, Message: msg})
}

func writeUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, msgUnauthorized)
}
