package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
)

// Error codes returned in {"error": "..."} bodies.
const (
	codeInvalidJSON     = "invalid_json"
	codeInvalidProfile  = "invalid_profile"
	codeInvalidBudget   = "invalid_budget"
	codeInvalidFood     = "invalid_food_preference"
	codeUnauthorized    = "unauthorized"
	codeSessionExpired  = "session_expired"
	codeNotFound        = "not_found"
	codeRateLimited     = "rate_limited"
	codeInvalidMethod   = "invalid_method"
	codeInternal        = "internal_error"
	maxRequestBodyBytes = 64 << 10
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// profileErrorCode maps validation failures to the code shown to clients.
func profileErrorCode(err error) string {
	switch {
	case errors.Is(err, compass.ErrInvalidFoodPreference):
		return codeInvalidFood
	case errors.Is(err, compass.ErrInvalidBudget), errors.Is(err, errBudgetOutOfRange):
		return codeInvalidBudget
	default:
		return codeInvalidProfile
	}
}
