package report

import (
	"strings"
	"testing"

	"github.com/beamplan-protocol/beamplan-go/internal/simdev"
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

type disconnectedError struct{}

func (disconnectedError) Error() string { return "device disconnected" }

func render(t *testing.T, f *Formatter, positioners ...device.Positioner) string {
	t.Helper()
	var b strings.Builder
	if err := f.Positioners(&b, positioners); err != nil {
		t.Fatalf("Positioners failed: %v", err)
	}
	return b.String()
}

func TestPositionersEmptyWritesNothing(t *testing.T) {
	if out := render(t, NewFormatter()); out != "" {
		t.Errorf("empty input produced output: %q", out)
	}
}

func TestPositionersTable(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -5, 5)
	if err := mtr.Set(1.23456); err != nil {
		t.Fatal(err)
	}
	mtr.SetOffset(0.5)

	out := render(t, NewFormatter(), mtr)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row:\n%s", len(lines), out)
	}
	for _, col := range []string{"Positioner", "Value", "Low Limit", "High Limit", "Offset"} {
		if !strings.Contains(lines[0], col) {
			t.Errorf("header missing %q: %s", col, lines[0])
		}
	}
	// The motor carries precision 3.
	for _, cell := range []string{"mtr1", "1.235", "-5", "5", "0.5"} {
		if !strings.Contains(lines[1], cell) {
			t.Errorf("row missing %q: %s", cell, lines[1])
		}
	}
}

func TestRowFaultIsolation(t *testing.T) {
	healthy := simdev.NewMotor("aaa", -5, 5)
	broken := simdev.NewMotor("bbb", -5, 5)
	broken.LimitsErr = disconnectedError{}

	out := render(t, NewFormatter(), healthy, broken)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if c := strings.Count(lines[2], "disconnectedError"); c != 2 {
		t.Errorf("broken row shows %d placeholders, want one per limit cell:\n%s", c, lines[2])
	}
	// The healthy row is unaffected.
	if strings.Contains(lines[1], "disconnectedError") {
		t.Errorf("healthy row contaminated:\n%s", lines[1])
	}
}

func TestRowUnreadablePositionBlanksRemainingCells(t *testing.T) {
	broken := simdev.NewMotor("mtr1", -5, 5)
	broken.PositionErr = disconnectedError{}

	value, low, high, offset := NewFormatter().row(broken)
	if value != "disconnectedError" {
		t.Errorf("value = %q, want the error type name", value)
	}
	if low != "" || high != "" || offset != "" {
		t.Errorf("cells = %q %q %q, want empty", low, high, offset)
	}
}

func TestSortDeduplicatesAndIsStable(t *testing.T) {
	a := simdev.NewMotor("alpha", -5, 5)
	b := simdev.NewMotor("beta", -5, 5)

	f := NewFormatter()
	first := render(t, f, b, a, b, a)
	second := render(t, f, a, b)
	if first != second {
		t.Errorf("output differs between shuffled and clean input:\n%s\n---\n%s", first, second)
	}
	if got := strings.Count(first, "alpha"); got != 1 {
		t.Errorf("alpha appears %d times, want 1", got)
	}
}

func TestPrefixIndentsEveryLine(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -5, 5)
	f := NewFormatter()
	f.Prefix = "  "

	for _, line := range strings.Split(strings.TrimRight(render(t, f, mtr), "\n"), "\n") {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line not indented: %q", line)
		}
	}
}

func TestDevicesTable(t *testing.T) {
	var b strings.Builder
	devs := []device.Device{
		simdev.NewDetector("det1", nil),
		simdev.NewMotor("mtr1", -5, 5),
	}
	err := NewFormatter().Devices(&b, []string{"counter", "axis"}, devs)
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}

	out := b.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header, rule and two rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "====") {
		t.Errorf("missing rule line: %q", lines[1])
	}
	if !strings.Contains(lines[2], "counter") || !strings.Contains(lines[2], "det1") {
		t.Errorf("row mismatch: %q", lines[2])
	}
}
