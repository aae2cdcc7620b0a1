// Package commands implements the beamplan-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beamplan-protocol/beamplan-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	RunID     string
	PlanClass string
	Category  *log.Category
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [run:id] CATEGORY PlanClass
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] %-7s %s\n", ts, shortenRunID(event.RunID), event.Category, event.PlanClass)

	switch {
	case event.Logbook != nil:
		formatLogbookDetails(w, event.Logbook)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Row != nil:
		formatRowDetails(w, event.Row)
	case event.State != nil:
		formatStateDetails(w, event.State)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatLogbookDetails writes the provenance record, indented.
func formatLogbookDetails(w io.Writer, lb *log.LogbookEvent) {
	for _, line := range strings.Split(lb.Text, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// formatMessageDetails writes message-specific details.
func formatMessageDetails(w io.Writer, me *log.MessageEvent) {
	fmt.Fprintf(w, "  Command: %s\n", me.Command)
	if me.Device != "" {
		fmt.Fprintf(w, "  Device: %s\n", me.Device)
	}
	if me.BlockGroup != "" {
		fmt.Fprintf(w, "  Group: %s\n", me.BlockGroup)
	}
}

// formatRowDetails writes one committed row in sorted field order.
func formatRowDetails(w io.Writer, row *log.RowEvent) {
	fmt.Fprintf(w, "  Sequence: %d\n", row.Sequence)
	fields := make([]string, 0, len(row.Data))
	for f := range row.Data {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %v\n", f, row.Data[f])
	}
}

// formatStateDetails writes state change details.
func formatStateDetails(w io.Writer, st *log.StateEvent) {
	fmt.Fprintf(w, "  %s -> %s\n", st.OldState, st.NewState)
	if st.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", st.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, ee *log.ErrorEvent) {
	fmt.Fprintf(w, "  Message: %s\n", ee.Message)
	if ee.Command != "" {
		fmt.Fprintf(w, "  Command: %s\n", ee.Command)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "logbook":
		return log.CategoryLogbook, nil
	case "message":
		return log.CategoryMessage, nil
	case "row":
		return log.CategoryRow, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be logbook, message, row, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		RunID:     filter.RunID,
		PlanClass: filter.PlanClass,
		Category:  filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
