// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for API authentication
// and rate limiting.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKeyHeader is the request header carrying the shared API secret.
const APIKeyHeader = "X-API-Key"

// APIError represents a JSON error response for the API.
type APIError struct {
	Error string `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIError{Error: message})
}

// APIKeyAuth creates middleware that validates the shared API key.
// The X-API-Key header must equal the server-configured secret; a missing
// or mismatched key yields a JSON 401.
func APIKeyAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				WriteAPIError(w, http.StatusUnauthorized, "Missing API key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				WriteAPIError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
