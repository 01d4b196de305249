// Package httputil centralizes JSON response writing so every handler
// produces the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"vigia/pkg/platform/sentinel"
)

// WriteJSON renders v with the given status. Encoding failures are
// swallowed: the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates domain errors to HTTP responses. Internal errors
// omit the description so storage details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	description := ""

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
		description = err.Error()
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusServiceUnavailable
		code = "unavailable"
		description = err.Error()
	}

	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}

// WriteBadRequest reports a client error with its description.
func WriteBadRequest(w http.ResponseWriter, description string) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{
		"error":             "bad_request",
		"error_description": description,
	})
}

// WriteUnauthorized reports a missing or invalid credential.
func WriteUnauthorized(w http.ResponseWriter, description string) {
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthorized",
		"error_description": description,
	})
}

// Decode parses the request body into T, reporting a bad request on
// malformed input. Unknown fields are rejected.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return req, false
	}
	return req, true
}
