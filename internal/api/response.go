package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/calm-green-heron/connwatch/internal/models"
)

// Response is a standard API response wrapper.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{Data: data}
	json.NewEncoder(w).Encode(resp)
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	resp := Response{Error: err}
	json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Accepted writes a 202 Accepted response.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusResponse is returned by the status endpoint.
type StatusResponse struct {
	Connectivity string        `json:"connectivity"`
	Entries      int64         `json:"entries"`
	LastEvent    *models.Event `json:"last_event,omitempty"`
	LastFlush    *time.Time    `json:"last_flush,omitempty"`
	Flushes      int64         `json:"flushes"`
	Archives     int64         `json:"archives"`
	LastBackup   string        `json:"last_backup,omitempty"`
}

// LogsResponse wraps the event list with its count.
type LogsResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}
