package api

import (
	"log"
	"net/http"

	"github.com/calm-green-heron/connwatch/internal/export"
	"github.com/calm-green-heron/connwatch/internal/models"
)

// handleListLogs returns all transitions, newest first.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.Logs()
	if err != nil {
		log.Printf("list logs failed: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	OK(w, LogsResponse{Items: events, Total: len(events)})
}

// handleExportLogs streams the full log as CSV, oldest first.
func (s *Server) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.Chronological()
	if err != nil {
		log.Printf("export logs failed: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="connectivity-log.csv"`)
	if err := export.WriteCSV(w, events); err != nil {
		// Headers are gone; all we can do is log.
		log.Printf("write csv export: %v", err)
	}
}

// handleClearLogs wipes the log and flushes the empty store to disk.
func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearLogs(); err != nil {
		log.Printf("clear logs failed: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}
	NoContent(w)
}

// handleStatus reports connectivity state and persistence counters.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Connectivity: string(models.StatusUnknown)}
	if s.stateFn != nil {
		resp.Connectivity = s.stateFn()
	}

	if n, err := s.service.Count(); err == nil {
		resp.Entries = n
	}
	if events, err := s.service.Logs(); err == nil && len(events) > 0 {
		resp.LastEvent = &events[0]
	}

	if s.manager != nil {
		stats := s.manager.Stats()
		resp.Flushes = stats.Flushes
		resp.Archives = stats.Archives
		if !stats.LastFlush.IsZero() {
			t := stats.LastFlush
			resp.LastFlush = &t
		}
	}

	if s.latest != nil {
		if msg := s.latest.Latest(); msg != nil {
			resp.LastBackup = msg.Text
		}
	}

	OK(w, resp)
}

// handleLatestBackup returns the most recent backup notification.
func (s *Server) handleLatestBackup(w http.ResponseWriter, r *http.Request) {
	if s.latest == nil {
		JSONError(w, ErrNotFound)
		return
	}
	msg := s.latest.Latest()
	if msg == nil {
		JSONError(w, ErrNotFound)
		return
	}
	OK(w, msg)
}

// handleTriggerBackup runs an immediate flush-and-archive.
func (s *Server) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if s.manager == nil {
		JSONError(w, NewInternalError("persistence is not configured"))
		return
	}
	if err := s.manager.FlushAndArchive(r.Context()); err != nil {
		log.Printf("manual backup failed: %v", err)
		JSONError(w, NewInternalError("backup failed"))
		return
	}
	OK(w, map[string]string{"status": "backup complete"})
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.Count(); err != nil {
		JSONError(w, NewInternalError("store unavailable"))
		return
	}
	OK(w, map[string]string{"status": "ok"})
}
