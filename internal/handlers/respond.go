// Package handlers contains the JSON REST handlers. Each entity gets a
// handler group holding its stores; handlers orchestrate slug resolution,
// content-block validation and counter-consistent writes, and shape every
// response into the API envelope.
package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// newPagination computes the page count as ceil(total/limit).
func newPagination(total, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// envelope is the uniform response body.
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

// respondData sends a success envelope with data.
func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondMessage sends a success envelope with a message and optional data.
func respondMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondList sends a success envelope with data and pagination.
func respondList(w http.ResponseWriter, data any, total, page, limit int) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Pagination: newPagination(total, page, limit),
	})
}

// respondError sends a failure envelope with a human-readable message.
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// respondInternal logs the failure and sends a generic 500. Detail stays
// server-side only.
func respondInternal(w http.ResponseWriter, action string, err error) {
	slog.Error(action+" failed", "error", err)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

// parsePagination reads page and limit query parameters, applying defaults
// and the hard limit cap.
func parsePagination(r *http.Request, fallbackLimit int) (page, limit int) {
	page = defaultPage
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	limit = fallbackLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
