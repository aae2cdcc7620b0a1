package msg

import (
	"fmt"
	"strings"
	"time"
)

// Device is the minimal handle a message carries for its target. Concrete
// capability interfaces (readable, settable, positioner) are defined in the
// device package; messages only need a stable name.
//
// Devices are owned by the caller's namespace. Plans and messages hold
// references, never ownership.
type Device interface {
	// Name returns the device's unique name within its namespace.
	Name() string
}

// Ref is a device reference recovered from the wire, where only the name
// survives. It satisfies Device so decoded messages remain inspectable.
type Ref string

// Name returns the referenced device name.
func (r Ref) Name() string { return string(r) }

// Reading is one field's value and acquisition timestamp, as returned by a
// read command.
type Reading struct {
	Value     float64   `cbor:"1,keyasint"`
	Timestamp time.Time `cbor:"2,keyasint"`
}

// Msg is one instruction in the interpreter's vocabulary. A Msg is immutable
// once created: plans produce messages lazily and never mutate them after
// emission.
type Msg struct {
	// Command is the instruction to execute.
	Command Command

	// Device is the optional target of the instruction.
	Device Device

	// Args are positional, command-specific arguments.
	Args []any

	// KWArgs are keyword, command-specific arguments.
	KWArgs map[string]any

	// BlockGroup is the join-barrier key correlating asynchronous
	// set/trigger calls with a later wait. Empty when untagged.
	BlockGroup string
}

// String renders the message for diagnostics, e.g.
// "set(mtr1, 2.5, group=A)".
func (m *Msg) String() string {
	var parts []string
	if m.Device != nil {
		parts = append(parts, m.Device.Name())
	}
	for _, a := range m.Args {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	for k, v := range m.KWArgs {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	if m.BlockGroup != "" {
		parts = append(parts, "group="+m.BlockGroup)
	}
	return fmt.Sprintf("%s(%s)", m.Command, strings.Join(parts, ", "))
}

// Configure builds a configure message for a device.
func Configure(d Device) *Msg {
	return &Msg{Command: CmdConfigure, Device: d}
}

// Deconfigure builds a deconfigure message for a device.
func Deconfigure(d Device) *Msg {
	return &Msg{Command: CmdDeconfigure, Device: d}
}

// Checkpoint builds a checkpoint message.
func Checkpoint() *Msg {
	return &Msg{Command: CmdCheckpoint}
}

// Create builds a create message opening a new event.
func Create() *Msg {
	return &Msg{Command: CmdCreate}
}

// Set builds a set message commanding a device toward pos under a block
// group. An empty group leaves the command untagged.
func Set(d Device, pos float64, group string) *Msg {
	return &Msg{Command: CmdSet, Device: d, Args: []any{pos}, BlockGroup: group}
}

// Trigger builds a trigger message starting an acquisition under a block
// group.
func Trigger(d Device, group string) *Msg {
	return &Msg{Command: CmdTrigger, Device: d, BlockGroup: group}
}

// Wait builds a wait message joining all outstanding set/trigger calls
// tagged with group.
func Wait(group string) *Msg {
	return &Msg{Command: CmdWait, Args: []any{group}}
}

// Read builds a read message for a device. The interpreter answers with a
// map[string]Reading keyed by field name.
func Read(d Device) *Msg {
	return &Msg{Command: CmdRead, Device: d}
}

// Save builds a save message closing the current event.
func Save() *Msg {
	return &Msg{Command: CmdSave}
}

// Sleep builds a sleep message requesting a delay of the given duration
// before the next message is processed.
func Sleep(d time.Duration) *Msg {
	return &Msg{Command: CmdSleep, Args: []any{d.Seconds()}}
}

// Logbook builds a logbook message carrying a provenance record and keyword
// metadata. It is always the first message of any plan.
func Logbook(text string, meta map[string]any) *Msg {
	return &Msg{Command: CmdLogbook, Args: []any{text}, KWArgs: meta}
}
