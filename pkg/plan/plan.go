package plan

import (
	"fmt"
	"strings"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Field is one declared, named field of a plan. The ordered field list and
// the plan name together form the plan's identity and provenance record.
type Field struct {
	Name  string
	Value any
}

// Plan is an object producing an ordered, finite message sequence
// representing an experiment procedure.
type Plan interface {
	// PlanName returns the plan's class name, used verbatim in provenance.
	PlanName() string

	// Fields returns the current value of every declared field, in
	// declaration order.
	Fields() []Field

	// Iterate starts a fresh production of the plan's message sequence.
	Iterate() *Iterator
}

// Base wraps a production routine with the mandatory provenance record.
// Concrete plans embed Base and supply their name, a field snapshot function
// and a ProduceFunc; Iterate prepends the logbook message before delegating.
//
// The zero Base has no production routine: iterating it emits the logbook
// entry and then fails with ErrNotImplemented.
type Base struct {
	name    string
	fields  func() []Field
	produce ProduceFunc
}

// NewBase builds the provenance wrapper for a concrete plan. fields is
// re-evaluated at each Iterate so the record reflects current field values.
func NewBase(name string, fields func() []Field, produce ProduceFunc) Base {
	return Base{name: name, fields: fields, produce: produce}
}

// PlanName returns the plan's class name.
func (b *Base) PlanName() string { return b.name }

// Fields returns the current value of every declared field.
func (b *Base) Fields() []Field {
	if b.fields == nil {
		return nil
	}
	return b.fields()
}

// Iterate starts a fresh production. The first message is always the logbook
// provenance entry.
func (b *Base) Iterate() *Iterator {
	fields := b.Fields()
	produce := b.produce
	name := b.name
	return newIterator(func(e *Emitter) error {
		if _, err := e.Emit(msg.Logbook(Provenance(name, fields), provenanceMeta(name, fields))); err != nil {
			return err
		}
		if produce == nil {
			return ErrNotImplemented
		}
		return produce(e)
	})
}

// Provenance renders the two-part provenance record: human-readable
// field lines followed by a machine-reproducible constructor call string.
func Provenance(name string, fields []Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan Class: %s\n\n", name)
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		v := formatFieldValue(f.Value)
		fmt.Fprintf(&b, "%s: %s\n", f.Name, v)
		args = append(args, fmt.Sprintf("%s=%s", f.Name, v))
	}
	fmt.Fprintf(&b, "\n%s(%s)", name, strings.Join(args, ", "))
	return b.String()
}

// provenanceMeta builds the keyword metadata attached to the logbook message.
func provenanceMeta(name string, fields []Field) map[string]any {
	meta := make(map[string]any, len(fields)+1)
	meta["plan_class"] = name
	for _, f := range fields {
		meta[f.Name] = formatFieldValue(f.Value)
	}
	return meta
}

func formatFieldValue(v any) string {
	switch t := v.(type) {
	case msg.Device:
		return t.Name()
	case []device.Readable:
		parts := make([]string, len(t))
		for i, d := range t {
			parts[i] = d.Name()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []float64:
		parts := make([]string, len(t))
		for i, x := range t {
			parts[i] = fmt.Sprintf("%v", x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
