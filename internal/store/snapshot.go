package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorruptSnapshot is returned when a non-empty snapshot cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot serializes the entire store to a single-file SQLite image. The
// serialization is taken under the read lock, so it is a consistent
// point-in-time view: no insert or clear can interleave with it.
func (s *EventStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, fmt.Errorf("store is closed")
	}

	tmpDir, err := os.MkdirTemp("", "connwatch-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO requires that the target file does not exist yet.
	path := filepath.Join(tmpDir, "snapshot.db")
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("vacuum into snapshot: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return data, nil
}

// Open builds a store from a snapshot image previously produced by
// Snapshot. A zero-length snapshot yields a valid empty store; this is how
// "no existing file" is distinguished from "corrupt file". A malformed
// non-empty snapshot returns an error wrapping ErrCorruptSnapshot.
//
// The id counter is recovered as MAX(id) over the snapshot's rows. That is
// a derived value rather than a persisted one; it is exact because rows are
// only ever bulk-cleared, never deleted individually.
func Open(snapshot []byte) (*EventStore, error) {
	if len(snapshot) == 0 {
		return New()
	}

	tmpDir, err := os.MkdirTemp("", "connwatch-restore-*")
	if err != nil {
		return nil, fmt.Errorf("create restore dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "snapshot.db")
	if err := os.WriteFile(path, snapshot, 0600); err != nil {
		return nil, fmt.Errorf("write restore file: %w", err)
	}

	src, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer src.Close()

	rows, err := src.Query("SELECT id, timestamp, status FROM events ORDER BY id")
	if err != nil {
		// Not a SQLite image, or one without an events table.
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	defer rows.Close()

	s, err := New()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("begin restore: %w", err)
	}

	var lastID int64
	for rows.Next() {
		var id int64
		var timestamp, status string
		if err := rows.Scan(&id, &timestamp, &status); err != nil {
			tx.Rollback()
			s.Close()
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO events (id, timestamp, status) VALUES (?, ?, ?)",
			id, timestamp, status,
		); err != nil {
			// Duplicate ids in the image violate the store invariant.
			tx.Rollback()
			s.Close()
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		lastID = id
	}
	if err := rows.Err(); err != nil {
		tx.Rollback()
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if err := tx.Commit(); err != nil {
		s.Close()
		return nil, fmt.Errorf("commit restore: %w", err)
	}

	s.lastID = lastID
	return s, nil
}
