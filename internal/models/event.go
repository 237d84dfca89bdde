// Package models contains the core data structures for connwatch.
package models

import (
	"encoding/json"
	"strings"
)

// Status represents the observed connectivity state.
type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusUnknown Status = "UNKNOWN"
)

// Event represents a single connectivity transition.
// Events are immutable once created; the store only ever bulk-clears them.
type Event struct {
	// ID is assigned by the store, strictly increasing, never reused.
	ID int64 `json:"id"`

	// Timestamp is the observation time as an ISO-8601 string. The store
	// treats it as opaque; the producer is responsible for well-formed values.
	Timestamp string `json:"timestamp"`

	// Status is the observed state, conventionally "UP" or "DOWN".
	Status string `json:"status"`
}

// JSON returns the event as JSON bytes.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// String returns a string representation of the event.
func (e *Event) String() string {
	return e.Timestamp + " [" + e.Status + "]"
}

// IsDown returns true if the event records a loss of connectivity.
func (e *Event) IsDown() bool {
	return ParseStatus(e.Status) == StatusDown
}

// ParseStatus converts a string to Status.
func ParseStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "UP", "ONLINE", "CONNECTED":
		return StatusUp
	case "DOWN", "OFFLINE", "DISCONNECTED":
		return StatusDown
	default:
		return StatusUnknown
	}
}
