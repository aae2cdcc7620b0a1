package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.blog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func TestReaderStreamsInOrder(t *testing.T) {
	base := time.Now()
	path := writeEvents(t, []Event{
		{Timestamp: base, RunID: "run-1", Category: CategoryState},
		{Timestamp: base.Add(time.Second), RunID: "run-1", Category: CategoryMessage},
		{Timestamp: base.Add(2 * time.Second), RunID: "run-1", Category: CategoryRow},
	})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	want := []Category{CategoryState, CategoryMessage, CategoryRow}
	for i, cat := range want {
		event, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if event.Category != cat {
			t.Errorf("event %d category = %v, want %v", i, event.Category, cat)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF at end", err)
	}
}

func TestFilteredReader(t *testing.T) {
	base := time.Now()
	path := writeEvents(t, []Event{
		{Timestamp: base, RunID: "run-1", PlanClass: "Count", Category: CategoryLogbook},
		{Timestamp: base.Add(time.Second), RunID: "run-1", PlanClass: "Count", Category: CategoryRow},
		{Timestamp: base.Add(2 * time.Second), RunID: "run-2", PlanClass: "LinAscan", Category: CategoryLogbook},
		{Timestamp: base.Add(3 * time.Second), RunID: "run-2", PlanClass: "LinAscan", Category: CategoryRow},
	})

	rowCat := CategoryRow
	end := base.Add(2 * time.Second)
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by run", Filter{RunID: "run-1"}, 2},
		{"by plan class", Filter{PlanClass: "LinAscan"}, 2},
		{"by category", Filter{Category: &rowCat}, 2},
		{"by run and category", Filter{RunID: "run-2", Category: &rowCat}, 1},
		{"by time window", Filter{TimeStart: &base, TimeEnd: &end}, 2},
		{"no match", Filter{RunID: "run-9"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			events, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.blog")); err == nil {
		t.Error("expected error for a missing file")
	}
}
