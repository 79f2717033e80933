// Package handlers implements the plain HTTP endpoints that sit next to the
// Connect services.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mmynk/nekolators/internal/api/dto"
	"github.com/mmynk/nekolators/internal/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	store storage.Store

	// baseURL overrides the request-derived base of generated URLs.
	baseURL string
}

// NewBase creates a new base handler with the given store.
func NewBase(store storage.Store, baseURL string) *Base {
	return &Base{store: store, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// BaseURL returns the origin the web client is served from: the configured
// public URL, else the request's Origin header, else its host.
func (b *Base) BaseURL(r *http.Request) string {
	if b.baseURL != "" {
		return b.baseURL
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		return strings.TrimSuffix(origin, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
