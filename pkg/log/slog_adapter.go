package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes run events to an slog.Logger.
// Useful for development when you want to watch a run in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("category", event.Category.String()),
	}

	if event.PlanClass != "" {
		attrs = append(attrs, slog.String("plan_class", event.PlanClass))
	}

	switch {
	case event.Logbook != nil:
		attrs = append(attrs, slog.String("logbook", event.Logbook.Text))
	case event.Message != nil:
		attrs = append(attrs, slog.String("command", event.Message.Command))
		if event.Message.Device != "" {
			attrs = append(attrs, slog.String("device", event.Message.Device))
		}
		if event.Message.BlockGroup != "" {
			attrs = append(attrs, slog.String("block_group", event.Message.BlockGroup))
		}
	case event.Row != nil:
		attrs = append(attrs, slog.Int("sequence", event.Row.Sequence))
		for field, value := range event.Row.Data {
			attrs = append(attrs, slog.Float64(field, value))
		}
	case event.State != nil:
		attrs = append(attrs,
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Command != "" {
			attrs = append(attrs, slog.String("command", event.Error.Command))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "run event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
