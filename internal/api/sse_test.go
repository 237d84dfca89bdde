package api

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/calm-green-heron/connwatch/internal/notifier"
)

func TestAPI_BackupStream(t *testing.T) {
	ts := setupTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.http.URL+"/api/v1/backups/stream", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s, want text/event-stream", ct)
	}

	scanner := bufio.NewScanner(resp.Body)

	// First frame is the connected comment.
	if !scanner.Scan() {
		t.Fatalf("stream closed early: %v", scanner.Err())
	}
	if got := scanner.Text(); got != ": connected" {
		t.Fatalf("first line = %q, want %q", got, ": connected")
	}

	// Give the handler time to subscribe before dispatching.
	time.Sleep(100 * time.Millisecond)
	ts.hub.Send(ctx, notifier.NewMessage("backup done", "/tmp/x.db", 1))

	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if event != "" && data != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if event != "backup" {
		t.Errorf("event = %q, want backup", event)
	}
	if !strings.Contains(data, "backup done") {
		t.Errorf("data = %q, want it to contain the message text", data)
	}
}
