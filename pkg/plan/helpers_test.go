package plan

import (
	"errors"
	"testing"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// drive runs the plan to exhaustion against the live device handles: sets
// move the motor, triggers sample detectors and reads are answered with the
// device's data. Returns every message in emission order.
func drive(t *testing.T, p Plan) []*msg.Msg {
	t.Helper()
	it := p.Iterate()
	defer it.Close()

	var msgs []*msg.Msg
	var resp any
	for {
		m, err := it.Next(resp)
		if errors.Is(err, ErrDone) {
			return msgs
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		msgs = append(msgs, m)
		resp = nil

		switch m.Command {
		case msg.CmdSet:
			s, ok := m.Device.(device.Settable)
			if !ok {
				t.Fatalf("%s is not settable", m.Device.Name())
			}
			if err := s.Set(m.Args[0].(float64)); err != nil {
				t.Fatalf("set %s: %v", m.Device.Name(), err)
			}
		case msg.CmdTrigger:
			r, ok := m.Device.(device.Readable)
			if !ok {
				t.Fatalf("%s cannot be triggered", m.Device.Name())
			}
			if err := r.Trigger(); err != nil {
				t.Fatalf("trigger %s: %v", m.Device.Name(), err)
			}
		case msg.CmdRead:
			rd, ok := m.Device.(interface {
				Read() (map[string]msg.Reading, error)
			})
			if !ok {
				t.Fatalf("%s is not readable", m.Device.Name())
			}
			readings, err := rd.Read()
			if err != nil {
				t.Fatalf("read %s: %v", m.Device.Name(), err)
			}
			resp = readings
		}
	}
}

// commands reduces a message list to command names for sequence assertions.
func commands(msgs []*msg.Msg) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Command.String()
	}
	return out
}

// setPositions extracts the commanded position of every set message.
func setPositions(msgs []*msg.Msg) []float64 {
	var out []float64
	for _, m := range msgs {
		if m.Command == msg.CmdSet {
			out = append(out, m.Args[0].(float64))
		}
	}
	return out
}

func assertCommands(t *testing.T, msgs []*msg.Msg, want []string) {
	t.Helper()
	got := commands(msgs)
	if len(got) != len(want) {
		t.Fatalf("sequence length = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d = %q, want %q\ngot: %v", i, got[i], want[i], got)
		}
	}
}

func assertNear(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("positions = %v, want %v", got, want)
	}
	for i := range want {
		d := got[i] - want[i]
		if d < -tol || d > tol {
			t.Fatalf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}
