package plan

import (
	"time"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Count takes one or more readings from the detectors without moving
// anything. Num of zero performs the configure/deconfigure bracket only.
type Count struct {
	Base

	Detectors []device.Readable
	Num       int
	Delay     time.Duration
}

// NewCount builds a Count plan over the given detectors. delay is the pause
// requested between successive readings.
func NewCount(dets []device.Readable, num int, delay time.Duration) *Count {
	p := &Count{Detectors: dets, Num: num, Delay: delay}
	p.Base = NewBase("Count", p.fieldList, p.produce)
	return p
}

func (p *Count) fieldList() []Field {
	return []Field{
		{Name: "detectors", Value: p.Detectors},
		{Name: "num", Value: p.Num},
		{Name: "delay", Value: p.Delay},
	}
}

func (p *Count) produce(e *Emitter) error {
	return withConfigured(e, p.Detectors, func() error {
		for i := 0; i < p.Num; i++ {
			if err := emit(e, msg.Checkpoint()); err != nil {
				return err
			}
			if err := emit(e, msg.Create()); err != nil {
				return err
			}
			for _, d := range p.Detectors {
				if err := emit(e, msg.Trigger(d, groupA)); err != nil {
					return err
				}
			}
			if err := emit(e, msg.Wait(groupA)); err != nil {
				return err
			}
			for _, d := range p.Detectors {
				if _, err := readDevice(e, d); err != nil {
					return err
				}
			}
			if err := emit(e, msg.Save()); err != nil {
				return err
			}
			if err := emit(e, msg.Sleep(p.Delay)); err != nil {
				return err
			}
		}
		return nil
	})
}
