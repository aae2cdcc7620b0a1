package log

import (
	"time"
)

// Event represents one run log event. CBOR encoding uses integer keys for
// compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID uniquely identifies the plan execution (UUID).
	RunID string `cbor:"2,keyasint"`

	// PlanClass is the class name of the plan being driven.
	PlanClass string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Logbook *LogbookEvent `cbor:"5,keyasint,omitempty"` // Provenance record
	Message *MessageEvent `cbor:"6,keyasint,omitempty"` // Wire message processed
	Row     *RowEvent     `cbor:"7,keyasint,omitempty"` // Committed event row
	State   *StateEvent   `cbor:"8,keyasint,omitempty"` // Engine state change
	Error   *ErrorEvent   `cbor:"9,keyasint,omitempty"` // Errors at any point
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLogbook indicates the provenance record opening a run.
	CategoryLogbook Category = 0
	// CategoryMessage indicates a processed wire message.
	CategoryMessage Category = 1
	// CategoryRow indicates a committed event row.
	CategoryRow Category = 2
	// CategoryState indicates an engine state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLogbook:
		return "LOGBOOK"
	case CategoryMessage:
		return "MESSAGE"
	case CategoryRow:
		return "ROW"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogbookEvent captures the provenance record that opens every run.
type LogbookEvent struct {
	// Text is the rendered two-part provenance record.
	Text string `cbor:"1,keyasint"`

	// Meta is the keyword metadata attached to the logbook message.
	Meta map[string]string `cbor:"2,keyasint,omitempty"`
}

// MessageEvent captures one wire message as the engine processed it.
type MessageEvent struct {
	// Command is the message command name.
	Command string `cbor:"1,keyasint"`

	// Device is the target device name, if any.
	Device string `cbor:"2,keyasint,omitempty"`

	// BlockGroup is the join-barrier key, if tagged.
	BlockGroup string `cbor:"3,keyasint,omitempty"`
}

// RowEvent captures one committed event row (create..save) of correlated
// readings.
type RowEvent struct {
	// Sequence numbers rows within a run, starting at 0.
	Sequence int `cbor:"1,keyasint"`

	// Data maps field name to value for every reading in the row.
	Data map[string]float64 `cbor:"2,keyasint,omitempty"`
}

// StateEvent captures an engine state change.
type StateEvent struct {
	// OldState and NewState are engine state names.
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason provides optional context for the change.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEvent captures an error raised while driving a plan.
type ErrorEvent struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Command is the message command being processed, if any.
	Command string `cbor:"2,keyasint,omitempty"`
}
