package device

import (
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Device is the base handle for any instrument. It is an alias of the
// message-level handle so devices slot directly into message targets.
type Device = msg.Device

// Readable is a device that can acquire and report data, e.g. a detector.
type Readable interface {
	Device

	// Trigger starts an acquisition and blocks until it completes. The
	// interpreter realises block-group concurrency by running Trigger calls
	// in parallel and joining at a wait.
	Trigger() error

	// Read returns the most recent acquisition as a mapping from field name
	// to Reading.
	Read() (map[string]msg.Reading, error)
}

// Settable is a device that can be commanded toward a value, e.g. a motor or
// a temperature controller.
type Settable interface {
	Device

	// Set moves the device toward pos and blocks until the move settles.
	Set(pos float64) error
}

// Positioner is a settable device that reports where it is.
type Positioner interface {
	Settable

	// Position returns the current position.
	Position() (float64, error)

	// Limits returns the low and high travel limits.
	Limits() (low, high float64, err error)

	// Offset returns the user offset applied to the raw position.
	Offset() (float64, error)
}

// Motor is a device a scan can command toward a position and read back. Motor
// reads are direct; they do not require a trigger.
type Motor interface {
	Settable

	// Read returns the motor's readback as a mapping from field name to
	// Reading. A motor usable as a relative-scan anchor reads exactly one
	// field.
	Read() (map[string]msg.Reading, error)
}

// Precise is implemented by positioners that carry their own display
// precision. Consumers fall back to a caller-supplied default otherwise.
type Precise interface {
	// Precision returns the number of decimals to round displayed values to.
	Precision() int
}

// Configurable is implemented by devices that need preparation before a plan
// and release afterwards. The interpreter brackets every plan in
// Configure/Deconfigure pairs per device.
type Configurable interface {
	// Configure prepares the device for a plan.
	Configure() error

	// Deconfigure releases the device after a plan.
	Deconfigure() error
}

// Labeled is implemented by devices carrying capability labels, used by the
// label index to select groups of devices without explicit enumeration.
type Labeled interface {
	// Labels returns the device's capability labels, e.g. "motors",
	// "detectors".
	Labels() []string
}

// Parent is a device that exposes one or more named sub-components. The label
// index recurses into a parent's namespace instead of indexing the parent
// itself; a parent's own labels are never inherited by its children.
type Parent interface {
	Device

	// Components returns the parent's sub-namespace, keyed by component name.
	Components() map[string]Device
}

// IsParent reports whether d exposes a non-empty sub-namespace.
func IsParent(d Device) bool {
	p, ok := d.(Parent)
	return ok && len(p.Components()) > 0
}

// IsPositioner reports whether d can report a position.
func IsPositioner(d Device) bool {
	_, ok := d.(Positioner)
	return ok
}
