// Package monitor is the intake and query surface over the event store.
// The probe records transitions through it, the API reads through it.
package monitor

import (
	"fmt"
	"log"
	"strings"

	"github.com/calm-green-heron/connwatch/internal/metrics"
	"github.com/calm-green-heron/connwatch/internal/models"
	"github.com/calm-green-heron/connwatch/internal/store"
)

// Flusher persists the store on demand. Satisfied by persist.Manager.
type Flusher interface {
	FlushPersistent() error
}

// Service mediates between collaborators and the shared event store.
type Service struct {
	store   *store.EventStore
	flusher Flusher
}

// NewService creates a monitor service. flusher may be nil, in which case
// ClearLogs skips the synchronous flush (tests only).
func NewService(st *store.EventStore, flusher Flusher) *Service {
	return &Service{store: st, flusher: flusher}
}

// RecordStatusChange appends a connectivity transition and returns its id.
// The entry lives in memory only until the next flush.
func (s *Service) RecordStatusChange(status, timestamp string) (int64, error) {
	id, err := s.store.Insert(status, timestamp)
	if err != nil {
		return 0, fmt.Errorf("record status change: %w", err)
	}

	metrics.EventsTotal.WithLabelValues(strings.ToLower(status)).Inc()
	if n, err := s.store.Count(); err == nil {
		metrics.StoreEntries.Set(float64(n))
	}
	return id, nil
}

// Logs returns all events newest first.
func (s *Service) Logs() ([]models.Event, error) {
	return s.store.All(store.OrderDesc)
}

// Chronological returns all events oldest first, for export.
func (s *Service) Chronological() ([]models.Event, error) {
	return s.store.All(store.OrderAsc)
}

// Count returns the number of stored events.
func (s *Service) Count() (int64, error) {
	return s.store.Count()
}

// ClearLogs deletes every event and immediately flushes the empty store to
// disk. This is the one mutation that persists synchronously: a reload
// right after a clear must come back empty, not resurrect the old log.
func (s *Service) ClearLogs() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	metrics.StoreEntries.Set(0)

	if s.flusher == nil {
		return nil
	}
	if err := s.flusher.FlushPersistent(); err != nil {
		log.Printf("flush after clear failed: %v", err)
		return fmt.Errorf("flush after clear: %w", err)
	}
	return nil
}
