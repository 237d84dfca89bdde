package export

import (
	"strings"
	"testing"

	"github.com/calm-green-heron/connwatch/internal/models"
)

func TestWriteCSV(t *testing.T) {
	events := []models.Event{
		{ID: 1, Timestamp: "2024-01-01T00:00:00Z", Status: "DOWN"},
		{ID: 2, Timestamp: "2024-01-01T00:05:00Z", Status: "UP"},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, events); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	want := "ID,Timestamp_ISO,Status\n" +
		"1,\"2024-01-01T00:00:00Z\",DOWN\n" +
		"2,\"2024-01-01T00:05:00Z\",UP\n"
	if sb.String() != want {
		t.Errorf("csv output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if sb.String() != "ID,Timestamp_ISO,Status\n" {
		t.Errorf("empty export = %q, want header only", sb.String())
	}
}
