// Package simdev provides simulated motors and detectors for testing and
// demos. Devices are software-only: a motor settles instantly and a detector
// samples a caller-supplied signal function at the motor's position.
package simdev

import (
	"sync"
	"time"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Motor is a simulated positioner. It settles instantly on Set and reads
// back a single field named after the motor.
type Motor struct {
	name   string
	labels []string

	mu       sync.RWMutex
	position float64
	low      float64
	high     float64
	offset   float64
	prec     int

	// SetErr, when non-nil, is returned by Set. PositionErr, LimitsErr and
	// OffsetErr likewise fail the corresponding accessor, for fault
	// injection in report and engine tests.
	SetErr      error
	PositionErr error
	LimitsErr   error
	OffsetErr   error
}

// NewMotor creates a motor with the given travel limits.
func NewMotor(name string, low, high float64) *Motor {
	return &Motor{name: name, low: low, high: high, prec: 3, labels: []string{"motors"}}
}

// SetLabels replaces the motor's capability labels.
func (m *Motor) SetLabels(labels ...string) { m.labels = labels }

// Name returns the motor name.
func (m *Motor) Name() string { return m.name }

// Labels returns the motor's capability labels.
func (m *Motor) Labels() []string { return m.labels }

// Set moves the motor to pos.
func (m *Motor) Set(pos float64) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
	return nil
}

// Read returns the single-field readback.
func (m *Motor) Read() (map[string]msg.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]msg.Reading{
		m.name: {Value: m.position, Timestamp: time.Now()},
	}, nil
}

// Position returns the current position.
func (m *Motor) Position() (float64, error) {
	if m.PositionErr != nil {
		return 0, m.PositionErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position, nil
}

// Limits returns the travel limits.
func (m *Motor) Limits() (float64, float64, error) {
	if m.LimitsErr != nil {
		return 0, 0, m.LimitsErr
	}
	return m.low, m.high, nil
}

// Offset returns the user offset.
func (m *Motor) Offset() (float64, error) {
	if m.OffsetErr != nil {
		return 0, m.OffsetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offset, nil
}

// SetOffset adjusts the user offset.
func (m *Motor) SetOffset(off float64) {
	m.mu.Lock()
	m.offset = off
	m.mu.Unlock()
}

// Precision returns the display precision.
func (m *Motor) Precision() int { return m.prec }

// Compile-time capability checks.
var (
	_ device.Motor      = (*Motor)(nil)
	_ device.Positioner = (*Motor)(nil)
	_ device.Precise    = (*Motor)(nil)
	_ device.Labeled    = (*Motor)(nil)
)

// MultiFieldMotor is a motor whose readback exposes two fields, the
// unsupported configuration for relative scans.
type MultiFieldMotor struct {
	Motor
}

// NewMultiFieldMotor creates a two-field motor.
func NewMultiFieldMotor(name string, low, high float64) *MultiFieldMotor {
	mm := &MultiFieldMotor{}
	mm.Motor = *NewMotor(name, low, high)
	return mm
}

// Read returns setpoint and readback as separate fields.
func (m *MultiFieldMotor) Read() (map[string]msg.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	return map[string]msg.Reading{
		m.name + "_setpoint": {Value: m.position, Timestamp: now},
		m.name + "_readback": {Value: m.position, Timestamp: now},
	}, nil
}

// Detector is a simulated readable device. Trigger samples the signal
// function; Read reports the sampled value under the detector's field name.
type Detector struct {
	name   string
	labels []string

	// Signal produces the detector value at trigger time. Nil reads as zero.
	Signal func() float64

	// TriggerErr and ReadErr inject faults.
	TriggerErr error
	ReadErr    error

	mu         sync.Mutex
	value      float64
	sampledAt  time.Time
	configured bool
	triggers   int
}

// NewDetector creates a detector sampling signal on every trigger.
func NewDetector(name string, signal func() float64) *Detector {
	return &Detector{name: name, Signal: signal, labels: []string{"detectors"}}
}

// SetLabels replaces the detector's capability labels.
func (d *Detector) SetLabels(labels ...string) { d.labels = labels }

// Name returns the detector name.
func (d *Detector) Name() string { return d.name }

// Labels returns the detector's capability labels.
func (d *Detector) Labels() []string { return d.labels }

// Configure marks the detector prepared.
func (d *Detector) Configure() error {
	d.mu.Lock()
	d.configured = true
	d.mu.Unlock()
	return nil
}

// Deconfigure releases the detector.
func (d *Detector) Deconfigure() error {
	d.mu.Lock()
	d.configured = false
	d.mu.Unlock()
	return nil
}

// Configured reports whether the detector is currently configured.
func (d *Detector) Configured() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configured
}

// Triggers returns how many acquisitions were started.
func (d *Detector) Triggers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.triggers
}

// Trigger samples the signal.
func (d *Detector) Trigger() error {
	if d.TriggerErr != nil {
		return d.TriggerErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.triggers++
	if d.Signal != nil {
		d.value = d.Signal()
	}
	d.sampledAt = time.Now()
	return nil
}

// Read returns the last sampled value.
func (d *Detector) Read() (map[string]msg.Reading, error) {
	if d.ReadErr != nil {
		return nil, d.ReadErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return map[string]msg.Reading{
		d.name: {Value: d.value, Timestamp: d.sampledAt},
	}, nil
}

// Compile-time capability checks.
var (
	_ device.Readable     = (*Detector)(nil)
	_ device.Configurable = (*Detector)(nil)
	_ device.Labeled      = (*Detector)(nil)
)

// Rig is a parent device grouping named sub-components, e.g. a diffractometer
// exposing its axes.
type Rig struct {
	name       string
	components map[string]device.Device
}

// NewRig creates a parent device over the given components.
func NewRig(name string, components map[string]device.Device) *Rig {
	return &Rig{name: name, components: components}
}

// Name returns the rig name.
func (r *Rig) Name() string { return r.name }

// Components returns the rig's sub-namespace.
func (r *Rig) Components() map[string]device.Device { return r.components }

// Compile-time capability check.
var _ device.Parent = (*Rig)(nil)
