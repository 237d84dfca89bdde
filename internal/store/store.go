// Package store provides the in-memory relational event store and its
// snapshot codec.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/calm-green-heron/connwatch/internal/models"
)

// Order selects the id ordering for queries.
type Order string

const (
	// OrderAsc returns events oldest first (chronological, for export).
	OrderAsc Order = "asc"
	// OrderDesc returns events newest first (for display).
	OrderDesc Order = "desc"
)

// EventStore is an in-memory SQLite table of connectivity events. It owns
// the monotonic id counter: ids are assigned as last+1 and never reused,
// tracked separately from the table contents so that a bulk clear is the
// only operation that can wind the counter back.
//
// All mutations and snapshots are serialized through the store's lock;
// queries take a read lock, so a snapshot is always a point-in-time view.
type EventStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	lastID int64
}

// New creates an empty event store.
func New() (*EventStore, error) {
	db, err := openMemoryDB()
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &EventStore{db: db}, nil
}

// openMemoryDB opens a private in-memory SQLite database.
func openMemoryDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps the whole store on one memory database and
	// matches SQLite's single-writer model.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Close releases the underlying database.
func (s *EventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Insert appends a new event and returns its assigned id. Status and
// timestamp are stored as opaque strings; no content validation is
// performed here (the producing collaborator is responsible for
// well-formed values).
func (s *EventStore) Insert(status, timestamp string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, fmt.Errorf("store is closed")
	}

	id := s.lastID + 1
	_, err := s.db.Exec(
		"INSERT INTO events (id, timestamp, status) VALUES (?, ?, ?)",
		id, timestamp, status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	s.lastID = id
	return id, nil
}

// All returns every event sorted by id in the requested order. The result
// reflects all committed inserts and clears at call time.
func (s *EventStore) All(order Order) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, fmt.Errorf("store is closed")
	}

	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}

	rows, err := s.db.Query("SELECT id, timestamp, status FROM events ORDER BY id " + dir)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Count returns the number of stored events.
func (s *EventStore) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, fmt.Errorf("store is closed")
	}

	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// LastID returns the last assigned event id.
func (s *EventStore) LastID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID
}

// Clear removes all events and resets the id counter to zero. This is
// destructive and irreversible from the store's perspective; recoverability
// depends entirely on snapshots taken before the clear.
func (s *EventStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("store is closed")
	}

	if _, err := s.db.Exec("DELETE FROM events"); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	s.lastID = 0
	return nil
}

// Ping verifies the underlying database is reachable, for health checks.
func (s *EventStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return fmt.Errorf("store is closed")
	}
	return s.db.PingContext(ctx)
}
