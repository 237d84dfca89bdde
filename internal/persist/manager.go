// Package persist owns the durability of the in-memory event store: it
// loads the store from the canonical database file at startup, flushes
// snapshots back to it, and writes timestamped backup archives.
package persist

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/calm-green-heron/connwatch/internal/metrics"
	"github.com/calm-green-heron/connwatch/internal/notifier"
	"github.com/calm-green-heron/connwatch/internal/store"
)

// Config holds persistence manager configuration.
type Config struct {
	// DBPath is the canonical database file. Overwritten atomically on
	// every flush.
	DBPath string

	// ArchiveDir is the directory receiving timestamped backup files.
	ArchiveDir string
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive dir is required")
	}
	return nil
}

// LoadStore opens the canonical database file and reconstructs the event
// store from it. An absent file yields a fresh empty store; a file that
// exists but cannot be decoded is fatal, so a corrupted database is never
// silently replaced by an empty one.
func LoadStore(path string) (*store.EventStore, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("no database at %s, starting empty", path)
		return store.New()
	}
	if err != nil {
		return nil, fmt.Errorf("read database %s: %w", path, err)
	}

	st, err := store.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	log.Printf("loaded %s: %d entries, last id %d", path, mustCount(st), st.LastID())
	return st, nil
}

func mustCount(st *store.EventStore) int64 {
	n, err := st.Count()
	if err != nil {
		return -1
	}
	return n
}

// Manager serializes snapshots of the event store to disk.
//
// A single mutex orders all flushes and archives; inserts into the store
// never trigger a flush, so everything recorded since the last flush is
// lost on a crash. That durability window is the flush interval.
type Manager struct {
	store      *store.EventStore
	config     Config
	dispatcher *notifier.Dispatcher

	mu        sync.Mutex
	closed    bool
	lastFlush time.Time
	flushes   int64
	archives  int64
}

// NewManager creates a persistence manager for the given store.
// dispatcher may be nil, in which case archive notifications are skipped.
func NewManager(st *store.EventStore, config Config, dispatcher *notifier.Dispatcher) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid persist config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(config.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	return &Manager{
		store:      st,
		config:     config,
		dispatcher: dispatcher,
	}, nil
}

// FlushPersistent snapshots the store and atomically replaces the canonical
// database file. The snapshot is written to a temp file in the same
// directory and renamed into place, so a crash mid-write never leaves a
// truncated database behind.
func (m *Manager) FlushPersistent() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence manager is closed")
	}
	return m.flushLocked()
}

func (m *Manager) flushLocked() error {
	data, err := m.store.Snapshot()
	if err != nil {
		metrics.FlushErrorsTotal.Inc()
		return fmt.Errorf("snapshot store: %w", err)
	}

	if err := writeAtomic(m.config.DBPath, data); err != nil {
		metrics.FlushErrorsTotal.Inc()
		return err
	}

	m.lastFlush = time.Now().UTC()
	m.flushes++
	metrics.FlushTotal.Inc()
	metrics.SnapshotBytes.Set(float64(len(data)))
	metrics.LastFlushTimestamp.Set(float64(m.lastFlush.Unix()))
	return nil
}

// Archive snapshots the store into a new timestamped backup file and
// returns its path. Files are created exclusively; if two archives land in
// the same second the later one gets a numeric suffix instead of clobbering
// the first.
func (m *Manager) Archive() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", fmt.Errorf("persistence manager is closed")
	}
	return m.archiveLocked()
}

func (m *Manager) archiveLocked() (string, error) {
	data, err := m.store.Snapshot()
	if err != nil {
		metrics.ArchiveErrorsTotal.Inc()
		return "", fmt.Errorf("snapshot store: %w", err)
	}

	path, err := writeArchive(m.config.ArchiveDir, time.Now().UTC(), data)
	if err != nil {
		metrics.ArchiveErrorsTotal.Inc()
		return "", err
	}

	m.archives++
	metrics.ArchiveTotal.Inc()
	return path, nil
}

// FlushAndArchive flushes the canonical file, then writes a backup archive.
// Flushing first guarantees the archive never contains entries missing from
// the canonical file.
func (m *Manager) FlushAndArchive(ctx context.Context) error {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("persistence manager is closed")
	}

	if err := m.flushLocked(); err != nil {
		m.mu.Unlock()
		return err
	}

	path, err := m.archiveLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	entries := mustCount(m.store)
	m.mu.Unlock()

	log.Printf("backup written: %s (%d entries)", path, entries)
	m.notify(ctx, path, entries)
	return nil
}

func (m *Manager) notify(ctx context.Context, path string, entries int64) {
	if m.dispatcher == nil {
		return
	}

	text := fmt.Sprintf("Backup complete: %d entries written to %s", entries, filepath.Base(path))
	msg := notifier.NewMessage(text, path, entries)
	if err := m.dispatcher.Dispatch(ctx, msg); err != nil {
		if err == notifier.ErrRateLimited {
			metrics.NotificationsDroppedTotal.Inc()
			return
		}
		log.Printf("backup notification failed: %v", err)
		return
	}
	metrics.NotificationsTotal.Inc()
}

// Stats describes the manager's flush history.
type Stats struct {
	LastFlush time.Time `json:"last_flush"`
	Flushes   int64     `json:"flushes"`
	Archives  int64     `json:"archives"`
}

// Stats returns flush counters for the status endpoint.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		LastFlush: m.lastFlush,
		Flushes:   m.flushes,
		Archives:  m.archives,
	}
}

// Close performs a final synchronous flush and marks the manager closed.
// Scheduled flushes arriving after Close are rejected. A failed final flush
// is returned to the caller but must not block process exit.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.flushLocked(); err != nil {
		log.Printf("ERROR: final flush failed, recent entries are lost: %v", err)
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".connwatch-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// writeArchive creates a backup file named after ts, with colons replaced
// so the name is valid on every filesystem. The file is opened O_EXCL; on
// collision a numeric suffix is appended rather than overwriting.
func writeArchive(dir string, ts time.Time, data []byte) (string, error) {
	stamp := strings.ReplaceAll(ts.Format(time.RFC3339), ":", "-")
	base := "backup-" + stamp

	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(dir, name+".db")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create archive %s: %w", path, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write archive %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close archive %s: %w", path, err)
		}
		return path, nil
	}
}
