package monitor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/calm-green-heron/connwatch/internal/export"
	"github.com/calm-green-heron/connwatch/internal/persist"
	"github.com/calm-green-heron/connwatch/internal/store"
)

func setupTestService(t *testing.T) (*Service, *persist.Manager, persist.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := persist.Config{
		DBPath:     filepath.Join(dir, "connwatch.db"),
		ArchiveDir: filepath.Join(dir, "backups"),
	}

	st, err := store.New()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	m, err := persist.NewManager(st, cfg, nil)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	return NewService(st, m), m, cfg
}

func TestService_RecordAndQuery(t *testing.T) {
	svc, _, _ := setupTestService(t)

	id1, err := svc.RecordStatusChange("DOWN", "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	id2, err := svc.RecordStatusChange("UP", "2024-01-01T00:05:00Z")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", id1, id2)
	}

	logs, err := svc.Logs()
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].ID != 2 || logs[0].Status != "UP" {
		t.Errorf("logs[0] = %+v, want id 2 UP", logs[0])
	}
	if logs[1].ID != 1 || logs[1].Status != "DOWN" {
		t.Errorf("logs[1] = %+v, want id 1 DOWN", logs[1])
	}

	chrono, err := svc.Chronological()
	if err != nil {
		t.Fatalf("chronological: %v", err)
	}
	var sb strings.Builder
	if err := export.WriteCSV(&sb, chrono); err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "ID,Timestamp_ISO,Status\n" +
		"1,\"2024-01-01T00:00:00Z\",DOWN\n" +
		"2,\"2024-01-01T00:05:00Z\",UP\n"
	if sb.String() != want {
		t.Errorf("csv:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestService_ClearLogsFlushesSynchronously(t *testing.T) {
	svc, _, cfg := setupTestService(t)

	svc.RecordStatusChange("DOWN", "2024-01-01T00:00:00Z")
	svc.RecordStatusChange("UP", "2024-01-01T00:05:00Z")

	if err := svc.ClearLogs(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// Reloading the just-flushed file yields an empty store.
	reloaded, err := persist.LoadStore(cfg.DBPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer reloaded.Close()

	n, err := reloaded.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after clear+reload = %d, want 0", n)
	}
	if reloaded.LastID() != 0 {
		t.Errorf("last id after clear+reload = %d, want 0", reloaded.LastID())
	}
}

func TestService_IDsContinueAcrossReload(t *testing.T) {
	svc, m, cfg := setupTestService(t)

	svc.RecordStatusChange("DOWN", "2024-01-01T00:00:00Z")
	if err := m.FlushPersistent(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded, err := persist.LoadStore(cfg.DBPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer reloaded.Close()

	svc2 := NewService(reloaded, nil)
	id, err := svc2.RecordStatusChange("UP", "2024-01-01T00:05:00Z")
	if err != nil {
		t.Fatalf("record after reload: %v", err)
	}
	if id != 2 {
		t.Errorf("id after reload = %d, want 2", id)
	}
}
