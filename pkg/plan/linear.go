package plan

import (
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

// Ascan is an absolute scan over one motor in caller-specified steps, used
// verbatim as the step list.
type Ascan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Steps     []float64
}

// NewAscan builds an absolute scan over the given positions.
func NewAscan(motor device.Motor, dets []device.Readable, steps []float64) *Ascan {
	p := &Ascan{Motor: motor, Detectors: dets, Steps: steps}
	p.Base = NewBase("Ascan", p.fieldList, p.produce)
	return p
}

func (p *Ascan) fieldList() []Field {
	return []Field{
		{Name: "motor", Value: p.Motor},
		{Name: "detectors", Value: p.Detectors},
		{Name: "steps", Value: p.Steps},
	}
}

func (p *Ascan) produce(e *Emitter) error {
	return runScan1D(e, p.Motor, p.Detectors, p.Steps)
}

// Dscan is a delta (relative) scan: caller-specified offsets applied to the
// motor's position at iteration time. The anchoring read blocks inside the
// production and fails with ErrMultiFieldMotor on motors whose read exposes
// more than one field.
type Dscan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Steps     []float64
}

// NewDscan builds a relative scan over the given offsets.
func NewDscan(motor device.Motor, dets []device.Readable, steps []float64) *Dscan {
	p := &Dscan{Motor: motor, Detectors: dets, Steps: steps}
	p.Base = NewBase("Dscan", p.fieldList, p.produce)
	return p
}

func (p *Dscan) fieldList() []Field {
	return []Field{
		{Name: "motor", Value: p.Motor},
		{Name: "detectors", Value: p.Detectors},
		{Name: "steps", Value: p.Steps},
	}
}

func (p *Dscan) produce(e *Emitter) error {
	current, err := readCurrent(e, p.Motor)
	if err != nil {
		return err
	}
	return runScan1D(e, p.Motor, p.Detectors, shifted(p.Steps, current))
}

// LinAscan is an absolute scan over num equally spaced positions between
// Start and Stop inclusive.
type LinAscan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Start     float64
	Stop      float64
	Num       int
}

// NewLinAscan builds a linearly spaced absolute scan.
func NewLinAscan(motor device.Motor, dets []device.Readable, start, stop float64, num int) *LinAscan {
	p := &LinAscan{Motor: motor, Detectors: dets, Start: start, Stop: stop, Num: num}
	p.Base = NewBase("LinAscan", p.fieldList, p.produce)
	return p
}

func (p *LinAscan) fieldList() []Field {
	return scanRangeFields(p.Motor, p.Detectors, p.Start, p.Stop, p.Num)
}

func (p *LinAscan) produce(e *Emitter) error {
	return runScan1D(e, p.Motor, p.Detectors, linspace(p.Start, p.Stop, p.Num))
}

// LogAscan is an absolute scan over num log-spaced positions: the step list
// is 10 raised to a linear interpolation between Start and Stop.
type LogAscan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Start     float64
	Stop      float64
	Num       int
}

// NewLogAscan builds a log-spaced absolute scan.
func NewLogAscan(motor device.Motor, dets []device.Readable, start, stop float64, num int) *LogAscan {
	p := &LogAscan{Motor: motor, Detectors: dets, Start: start, Stop: stop, Num: num}
	p.Base = NewBase("LogAscan", p.fieldList, p.produce)
	return p
}

func (p *LogAscan) fieldList() []Field {
	return scanRangeFields(p.Motor, p.Detectors, p.Start, p.Stop, p.Num)
}

func (p *LogAscan) produce(e *Emitter) error {
	return runScan1D(e, p.Motor, p.Detectors, logspace(p.Start, p.Stop, p.Num))
}

// LinDscan is a relative scan over num equally spaced offsets, shifted by the
// motor's position at iteration time.
type LinDscan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Start     float64
	Stop      float64
	Num       int
}

// NewLinDscan builds a linearly spaced relative scan.
func NewLinDscan(motor device.Motor, dets []device.Readable, start, stop float64, num int) *LinDscan {
	p := &LinDscan{Motor: motor, Detectors: dets, Start: start, Stop: stop, Num: num}
	p.Base = NewBase("LinDscan", p.fieldList, p.produce)
	return p
}

func (p *LinDscan) fieldList() []Field {
	return scanRangeFields(p.Motor, p.Detectors, p.Start, p.Stop, p.Num)
}

func (p *LinDscan) produce(e *Emitter) error {
	current, err := readCurrent(e, p.Motor)
	if err != nil {
		return err
	}
	return runScan1D(e, p.Motor, p.Detectors, shifted(linspace(p.Start, p.Stop, p.Num), current))
}

// LogDscan is a relative scan over num log-spaced offsets, shifted by the
// motor's position at iteration time.
type LogDscan struct {
	Base

	Motor     device.Motor
	Detectors []device.Readable
	Start     float64
	Stop      float64
	Num       int
}

// NewLogDscan builds a log-spaced relative scan.
func NewLogDscan(motor device.Motor, dets []device.Readable, start, stop float64, num int) *LogDscan {
	p := &LogDscan{Motor: motor, Detectors: dets, Start: start, Stop: stop, Num: num}
	p.Base = NewBase("LogDscan", p.fieldList, p.produce)
	return p
}

func (p *LogDscan) fieldList() []Field {
	return scanRangeFields(p.Motor, p.Detectors, p.Start, p.Stop, p.Num)
}

func (p *LogDscan) produce(e *Emitter) error {
	current, err := readCurrent(e, p.Motor)
	if err != nil {
		return err
	}
	return runScan1D(e, p.Motor, p.Detectors, shifted(logspace(p.Start, p.Stop, p.Num), current))
}

// scanRangeFields is the shared field list of the range-based scans.
func scanRangeFields(motor device.Motor, dets []device.Readable, start, stop float64, num int) []Field {
	return []Field{
		{Name: "motor", Value: motor},
		{Name: "detectors", Value: dets},
		{Name: "start", Value: start},
		{Name: "stop", Value: stop},
		{Name: "num", Value: num},
	}
}
