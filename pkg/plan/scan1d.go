package plan

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Block groups used by the built-in loops. Scans join motor moves on group A
// and detector acquisitions on group B; Count triggers its detectors on
// group A.
const (
	groupA = "A"
	groupB = "B"
)

// ErrMultiFieldMotor is the unsupported-configuration error signalled when a
// relative scan's motor read returns more than one field. The plan cannot
// anchor itself and emits no further messages.
var ErrMultiFieldMotor = errors.New("motor read returned more than one field, cannot anchor a relative scan")

// emit yields a message and discards the (absent) response. Helper for the
// majority of commands, which return nothing.
func emit(e *Emitter, m *msg.Msg) error {
	_, err := e.Emit(m)
	return err
}

// withConfigured emits configure for every detector, runs body and emits the
// matching deconfigure messages. The release half is scoped: it is delivered
// even when the driver stops the plan mid-body, for exactly the detectors
// that were configured.
func withConfigured(e *Emitter, dets []device.Readable, body func() error) error {
	var configured []device.Readable
	defer func() {
		for _, d := range configured {
			if err := e.emitCleanup(msg.Deconfigure(d)); err != nil {
				return // driver abandoned the sequence
			}
		}
	}()
	for _, d := range dets {
		if err := emit(e, msg.Configure(d)); err != nil {
			return err
		}
		configured = append(configured, d)
	}
	return body()
}

// readDevice emits a read for the device and converts the driver's response.
func readDevice(e *Emitter, d msg.Device) (map[string]msg.Reading, error) {
	resp, err := e.Emit(msg.Read(d))
	if err != nil {
		return nil, err
	}
	readings, ok := resp.(map[string]msg.Reading)
	if !ok {
		return nil, fmt.Errorf("unexpected read reply for %s: %T", d.Name(), resp)
	}
	return readings, nil
}

// readCurrent performs a blocking read of the motor and returns the single
// field's value, anchoring a relative scan at the current position.
func readCurrent(e *Emitter, motor device.Motor) (float64, error) {
	readings, err := readDevice(e, motor)
	if err != nil {
		return 0, err
	}
	if len(readings) != 1 {
		return 0, fmt.Errorf("%s: %w", motor.Name(), ErrMultiFieldMotor)
	}
	for _, r := range readings {
		return r.Value, nil
	}
	return 0, fmt.Errorf("%s: motor read returned no fields", motor.Name())
}

// runScan1D is the generic per-step loop shared by the whole linear family.
// Callers compute the concrete step list first and delegate; the loop is
// unaware of how steps were derived.
func runScan1D(e *Emitter, motor device.Motor, dets []device.Readable, steps []float64) error {
	return withConfigured(e, dets, func() error {
		for _, step := range steps {
			if err := emit(e, msg.Checkpoint()); err != nil {
				return err
			}
			if err := emit(e, msg.Set(motor, step, groupA)); err != nil {
				return err
			}
			if err := emit(e, msg.Wait(groupA)); err != nil {
				return err
			}
			if err := emit(e, msg.Create()); err != nil {
				return err
			}
			if _, err := readDevice(e, motor); err != nil {
				return err
			}
			for _, d := range dets {
				if err := emit(e, msg.Trigger(d, groupB)); err != nil {
					return err
				}
			}
			if err := emit(e, msg.Wait(groupB)); err != nil {
				return err
			}
			for _, d := range dets {
				if _, err := readDevice(e, d); err != nil {
					return err
				}
			}
			if err := emit(e, msg.Save()); err != nil {
				return err
			}
		}
		return nil
	})
}

// linspace returns num points linearly interpolated between start and stop
// inclusive.
func linspace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, num), start, stop)
}

// logspace returns num points such that their base-10 logarithms are evenly
// spread between start and stop inclusive.
func logspace(start, stop float64, num int) []float64 {
	steps := linspace(start, stop, num)
	for i, v := range steps {
		steps[i] = math.Pow(10, v)
	}
	return steps
}

// shifted returns the steps offset by delta.
func shifted(steps []float64, delta float64) []float64 {
	out := make([]float64, len(steps))
	for i, v := range steps {
		out[i] = v + delta
	}
	return out
}
