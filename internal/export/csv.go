// Package export renders the event log for external consumers.
package export

import (
	"fmt"
	"io"

	"github.com/calm-green-heron/connwatch/internal/models"
)

// Header is the first line of every CSV export.
const Header = "ID,Timestamp_ISO,Status"

// WriteCSV writes the events as CSV. Only the timestamp field is quoted;
// ids and statuses are emitted bare, matching the format downstream
// spreadsheet imports already rely on.
func WriteCSV(w io.Writer, events []models.Event) error {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range events {
		if _, err := fmt.Fprintf(w, "%d,%q,%s\n", e.ID, e.Timestamp, e.Status); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.ID, err)
		}
	}
	return nil
}
