// Package report renders tabular summaries of positioner state.
//
// Field access is fault-isolated: a positioner that fails to report one field
// gets a placeholder in that cell without aborting the row, its remaining
// fields or the rest of the report. Devices are externally owned and may
// become unreadable mid-report.
package report

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

// lineFormat is the fixed-width row layout:
// Positioner(30) Value(11) LowLimit(11) HighLimit(11) Offset(11).
const lineFormat = "%s%-30v %-11v %-11v %-11v %-11v\n"

// ruleWidth is the width of the heading rule on the device-listing path.
const ruleWidth = 40

// DefaultPrecision is the fallback decimal count for positioners that do not
// carry their own.
const DefaultPrecision = 6

// Formatter renders positioner and device tables.
type Formatter struct {
	// Sort de-duplicates the input and orders rows by device name.
	Sort bool

	// Precision is the decimal count for positioners that do not expose
	// their own.
	Precision int

	// Prefix is prepended to every line, e.g. an indent under a label
	// heading.
	Prefix string
}

// NewFormatter returns a Formatter with the default settings.
func NewFormatter() *Formatter {
	return &Formatter{Sort: true, Precision: DefaultPrecision}
}

// Positioners writes one header line and one row per positioner. An empty
// input writes nothing.
func (f *Formatter) Positioners(w io.Writer, positioners []device.Positioner) error {
	if len(positioners) == 0 {
		return nil
	}
	if f.Sort {
		positioners = sortedUnique(positioners)
	}

	if _, err := fmt.Fprintf(w, lineFormat, f.Prefix, "Positioner", "Value", "Low Limit", "High Limit", "Offset"); err != nil {
		return err
	}
	for _, p := range positioners {
		value, low, high, offset := f.row(p)
		if _, err := fmt.Fprintf(w, lineFormat, f.Prefix, p.Name(), value, low, high, offset); err != nil {
			return err
		}
	}
	return nil
}

// row reads one positioner's fields, substituting the error's type name for
// any field that cannot be read.
func (f *Formatter) row(p device.Positioner) (value, low, high, offset string) {
	prec := f.Precision
	if pr, ok := p.(device.Precise); ok {
		prec = pr.Precision()
	}

	pos, err := p.Position()
	if err != nil {
		// An unreadable position leaves the remaining cells empty, as
		// there is nothing meaningful to relate them to.
		return errName(err), "", "", ""
	}
	value = formatRounded(pos, prec)

	lo, hi, err := p.Limits()
	if err != nil {
		low, high = errName(err), errName(err)
	} else {
		low, high = formatRounded(lo, prec), formatRounded(hi, prec)
	}

	off, err := p.Offset()
	if err != nil {
		offset = errName(err)
	} else {
		offset = formatRounded(off, prec)
	}
	return value, low, high, offset
}

// Devices writes a name table for non-positioner devices: a header, a rule
// line and one row per device.
func (f *Formatter) Devices(w io.Writer, names []string, devices []device.Device) error {
	if _, err := fmt.Fprintf(w, "%s%-20s \t %-20s\n", f.Prefix, "Namespace name", "Device name"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", f.Prefix, strings.Repeat("=", ruleWidth)); err != nil {
		return err
	}
	for i, d := range devices {
		if _, err := fmt.Fprintf(w, "%s%-20s \t %-20s\n", f.Prefix, names[i], d.Name()); err != nil {
			return err
		}
	}
	return nil
}

// sortedUnique de-duplicates by handle and sorts by device name.
func sortedUnique(positioners []device.Positioner) []device.Positioner {
	seen := make(map[device.Positioner]struct{}, len(positioners))
	out := make([]device.Positioner, 0, len(positioners))
	for _, p := range positioners {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// formatRounded rounds v to prec decimals and renders it compactly.
func formatRounded(v float64, prec int) string {
	scale := math.Pow(10, float64(prec))
	return fmt.Sprintf("%v", math.Round(v*scale)/scale)
}

// errName returns the error's type name, the placeholder used for an
// unreadable field.
func errName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
