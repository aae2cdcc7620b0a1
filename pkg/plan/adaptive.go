package plan

import (
	"fmt"
	"math"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// backtrackThreshold controls when the adaptive loop goes backward to
// re-measure a region: a proposed step shrinking below this fraction of the
// step just taken means the signal changed too fast for that step.
const backtrackThreshold = 0.8

// adaptiveParams is the shared state of the adaptive family. The loop trades
// measurement density for coverage speed: dense sampling where the target
// signal changes fast, sparse where it is flat, with a bounded one-step
// lookback to correct overshoot.
type adaptiveParams struct {
	motor       device.Motor
	dets        []device.Readable
	targetField string
	start       float64
	stop        float64
	minStep     float64
	maxStep     float64
	targetDelta float64
}

// runAdaptive executes the feedback-driven variable-step loop, with start and
// stop shifted by offset.
func runAdaptive(e *Emitter, p adaptiveParams, offset float64) error {
	start := p.start + offset
	stop := p.stop + offset
	nextPos := start
	step := (p.maxStep - p.minStep) / 2

	var pastI float64
	havePast := false

	return withConfigured(e, p.dets, func() error {
		for nextPos < stop {
			if err := emit(e, msg.Checkpoint()); err != nil {
				return err
			}
			if err := emit(e, msg.Set(p.motor, nextPos, groupA)); err != nil {
				return err
			}
			if err := emit(e, msg.Wait(groupA)); err != nil {
				return err
			}
			if err := emit(e, msg.Create()); err != nil {
				return err
			}
			if _, err := readDevice(e, p.motor); err != nil {
				return err
			}
			for _, d := range p.dets {
				if err := emit(e, msg.Trigger(d, groupB)); err != nil {
					return err
				}
			}
			if err := emit(e, msg.Wait(groupB)); err != nil {
				return err
			}
			curI, haveCur := 0.0, false
			for _, d := range p.dets {
				readings, err := readDevice(e, d)
				if err != nil {
					return err
				}
				if r, ok := readings[p.targetField]; ok {
					curI = r.Value
					haveCur = true
				}
			}
			if err := emit(e, msg.Save()); err != nil {
				return err
			}
			if !haveCur {
				return fmt.Errorf("no detector exposes target field %q", p.targetField)
			}

			// First point only establishes the reference.
			if !havePast {
				pastI = curI
				havePast = true
				nextPos += step
				continue
			}

			dI := math.Abs(curI - pastI)
			slope := dI / step
			var newStep float64
			if slope != 0 {
				newStep = clamp(p.targetDelta/slope, p.minStep, p.maxStep)
			} else {
				// Flat signal: grow slowly toward the coarse bound.
				newStep = math.Min(step*1.1, p.maxStep)
			}

			if newStep < step*backtrackThreshold {
				// Overstepped: rewind and re-measure the same region with
				// the finer step. The reference is not updated.
				nextPos -= step
				step = newStep
			} else {
				pastI = curI
				step = 0.2*newStep + 0.8*step
			}
			nextPos += step
		}
		return nil
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// AdaptiveAscan is an absolute scan whose step size is tuned by the observed
// change in TargetField between consecutive measurements.
type AdaptiveAscan struct {
	Base

	Motor       device.Motor
	Detectors   []device.Readable
	TargetField string
	Start       float64
	Stop        float64
	MinStep     float64
	MaxStep     float64
	TargetDelta float64
}

// NewAdaptiveAscan builds an adaptive absolute scan. targetField names the
// data field whose change drives the step-size feedback; minStep and maxStep
// bound the step, and targetDelta is the desired signal change per step.
func NewAdaptiveAscan(motor device.Motor, dets []device.Readable, targetField string, start, stop, minStep, maxStep, targetDelta float64) *AdaptiveAscan {
	p := &AdaptiveAscan{
		Motor: motor, Detectors: dets, TargetField: targetField,
		Start: start, Stop: stop,
		MinStep: minStep, MaxStep: maxStep, TargetDelta: targetDelta,
	}
	p.Base = NewBase("AdaptiveAscan", p.fieldList, p.produce)
	return p
}

func (p *AdaptiveAscan) fieldList() []Field {
	return adaptiveFields(p.Motor, p.Detectors, p.TargetField, p.Start, p.Stop, p.MinStep, p.MaxStep, p.TargetDelta)
}

func (p *AdaptiveAscan) produce(e *Emitter) error {
	return runAdaptive(e, p.params(), 0)
}

func (p *AdaptiveAscan) params() adaptiveParams {
	return adaptiveParams{
		motor: p.Motor, dets: p.Detectors, targetField: p.TargetField,
		start: p.Start, stop: p.Stop,
		minStep: p.MinStep, maxStep: p.MaxStep, targetDelta: p.TargetDelta,
	}
}

// AdaptiveDscan is the relative variant of AdaptiveAscan: start and stop are
// offsets from the motor's position at iteration time, anchored by the same
// blocking pre-read as Dscan.
type AdaptiveDscan struct {
	Base

	Motor       device.Motor
	Detectors   []device.Readable
	TargetField string
	Start       float64
	Stop        float64
	MinStep     float64
	MaxStep     float64
	TargetDelta float64
}

// NewAdaptiveDscan builds an adaptive relative scan.
func NewAdaptiveDscan(motor device.Motor, dets []device.Readable, targetField string, start, stop, minStep, maxStep, targetDelta float64) *AdaptiveDscan {
	p := &AdaptiveDscan{
		Motor: motor, Detectors: dets, TargetField: targetField,
		Start: start, Stop: stop,
		MinStep: minStep, MaxStep: maxStep, TargetDelta: targetDelta,
	}
	p.Base = NewBase("AdaptiveDscan", p.fieldList, p.produce)
	return p
}

func (p *AdaptiveDscan) fieldList() []Field {
	return adaptiveFields(p.Motor, p.Detectors, p.TargetField, p.Start, p.Stop, p.MinStep, p.MaxStep, p.TargetDelta)
}

func (p *AdaptiveDscan) produce(e *Emitter) error {
	offset, err := readCurrent(e, p.Motor)
	if err != nil {
		return err
	}
	return runAdaptive(e, adaptiveParams{
		motor: p.Motor, dets: p.Detectors, targetField: p.TargetField,
		start: p.Start, stop: p.Stop,
		minStep: p.MinStep, maxStep: p.MaxStep, targetDelta: p.TargetDelta,
	}, offset)
}

func adaptiveFields(motor device.Motor, dets []device.Readable, targetField string, start, stop, minStep, maxStep, targetDelta float64) []Field {
	return []Field{
		{Name: "motor", Value: motor},
		{Name: "detectors", Value: dets},
		{Name: "target_field", Value: targetField},
		{Name: "start", Value: start},
		{Name: "stop", Value: stop},
		{Name: "min_step", Value: minStep},
		{Name: "max_step", Value: maxStep},
		{Name: "target_delta", Value: targetDelta},
	}
}
