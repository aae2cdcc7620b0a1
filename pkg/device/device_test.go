package device_test

import (
	"testing"

	"github.com/beamplan-protocol/beamplan-go/internal/simdev"
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

func TestIsParent(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -10, 10)
	empty := simdev.NewRig("empty", nil)
	rig := simdev.NewRig("rig", map[string]device.Device{"mtr1": mtr})

	if device.IsParent(mtr) {
		t.Error("motor reported as parent")
	}
	if device.IsParent(empty) {
		t.Error("parent with no components reported as parent")
	}
	if !device.IsParent(rig) {
		t.Error("rig with components not reported as parent")
	}
}

func TestIsPositioner(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -10, 10)
	det := simdev.NewDetector("det1", nil)

	if !device.IsPositioner(mtr) {
		t.Error("motor not reported as positioner")
	}
	if device.IsPositioner(det) {
		t.Error("detector reported as positioner")
	}
}
