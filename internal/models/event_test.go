package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"UP", StatusUp},
		{"up", StatusUp},
		{"online", StatusUp},
		{"CONNECTED", StatusUp},
		{"DOWN", StatusDown},
		{"offline", StatusDown},
		{"Disconnected", StatusDown},
		{"", StatusUnknown},
		{"flaky", StatusUnknown},
	}

	for _, tt := range tests {
		if got := ParseStatus(tt.in); got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEvent_IsDown(t *testing.T) {
	e := &Event{ID: 1, Timestamp: "2024-01-01T00:00:00Z", Status: "DOWN"}
	if !e.IsDown() {
		t.Error("DOWN event should report IsDown")
	}
	e.Status = "UP"
	if e.IsDown() {
		t.Error("UP event should not report IsDown")
	}
}

func TestEvent_JSON(t *testing.T) {
	e := &Event{ID: 7, Timestamp: "2024-01-01T00:00:00Z", Status: "UP"}
	data, err := e.JSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":7,"timestamp":"2024-01-01T00:00:00Z","status":"UP"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
