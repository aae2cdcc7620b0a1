package labels

import (
	"strings"
	"testing"

	"github.com/beamplan-protocol/beamplan-go/internal/simdev"
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

func motor(name string, labels ...string) *simdev.Motor {
	m := simdev.NewMotor(name, -10, 10)
	m.SetLabels(labels...)
	return m
}

func entryNames(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestFindFlatNamespace(t *testing.T) {
	ns := map[string]device.Device{
		"mtr2": motor("mtr2", "motors"),
		"mtr1": motor("mtr1", "motors", "axes"),
		"det1": simdev.NewDetector("det1", nil),
	}

	ix := Find(ns)

	if got := entryNames(ix["motors"]); len(got) != 2 || got[0] != "mtr1" || got[1] != "mtr2" {
		t.Errorf("motors = %v, want [mtr1 mtr2] in sorted-name order", got)
	}
	if got := entryNames(ix["axes"]); len(got) != 1 || got[0] != "mtr1" {
		t.Errorf("axes = %v, want [mtr1]", got)
	}
	if got := entryNames(ix["detectors"]); len(got) != 1 || got[0] != "det1" {
		t.Errorf("detectors = %v, want [det1]", got)
	}
}

func TestFindSkipsExcludedNames(t *testing.T) {
	ns := map[string]device.Device{
		"mtr1":    motor("mtr1", "motors"),
		"_hidden": motor("_hidden", "motors"),
	}

	ix := Find(ns)
	if got := entryNames(ix["motors"]); len(got) != 1 || got[0] != "mtr1" {
		t.Errorf("motors = %v, want [mtr1]", got)
	}
}

func TestFindRecursesIntoParents(t *testing.T) {
	rig := simdev.NewRig("diff", map[string]device.Device{
		"theta": motor("diff_theta", "axes"),
		"chi":   motor("diff_chi", "axes"),
	})
	ns := map[string]device.Device{
		"diff": rig,
		"mtr1": motor("mtr1", "axes"),
	}

	ix := Find(ns)

	// Children are attributed under their own names; top-level entries and
	// nested entries under the same label are concatenated.
	got := entryNames(ix["axes"])
	want := []string{"chi", "theta", "mtr1"}
	if len(got) != len(want) {
		t.Fatalf("axes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("axes = %v, want %v", got, want)
		}
	}
}

func TestParentContributesNoEntries(t *testing.T) {
	rig := simdev.NewRig("diff", map[string]device.Device{
		"theta": motor("diff_theta", "axes"),
	})
	ix := Find(map[string]device.Device{"diff": rig})

	for _, label := range ix.Labels() {
		for _, e := range ix[label] {
			if e.Device == device.Device(rig) {
				t.Errorf("parent appears under label %q", label)
			}
		}
	}
}

func TestFindDepthBound(t *testing.T) {
	leaf := motor("deep", "axes")
	inner := simdev.NewRig("inner", map[string]device.Device{"deep": leaf})
	outer := simdev.NewRig("outer", map[string]device.Device{"inner": inner})
	ns := map[string]device.Device{
		"outer": outer,
		"mtr1":  motor("mtr1", "axes"),
	}

	var warnings []string
	ix := Find(ns,
		WithMaxDepth(2),
		WithWarnings(func(format string, args ...any) {
			warnings = append(warnings, format)
		}),
	)

	// The deep branch is abandoned; the flat part of the query is intact.
	got := entryNames(ix["axes"])
	if len(got) != 1 || got[0] != "mtr1" {
		t.Errorf("axes = %v, want [mtr1]", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "recursion") {
		t.Errorf("warnings = %v, want one recursion warning", warnings)
	}
}

func TestFindZeroDepth(t *testing.T) {
	ns := map[string]device.Device{
		"mtr1": motor("mtr1", "motors"),
	}

	var warnings []string
	ix := Find(ns,
		WithMaxDepth(0),
		WithWarnings(func(format string, args ...any) {
			warnings = append(warnings, format)
		}),
	)

	if len(ix) != 0 {
		t.Errorf("index = %v, want empty", ix)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
}

func TestIndexAccessors(t *testing.T) {
	ns := map[string]device.Device{
		"mtr1": motor("mtr1", "motors", "axes"),
		"det1": simdev.NewDetector("det1", nil),
	}
	ix := Find(ns)

	labels := ix.Labels()
	want := []string{"axes", "detectors", "motors"}
	if len(labels) != len(want) {
		t.Fatalf("Labels() = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("Labels() = %v, want %v", labels, want)
		}
	}

	devs := ix.Devices("motors")
	if len(devs) != 1 || devs[0].Name() != "mtr1" {
		t.Errorf("Devices(motors) = %v", devs)
	}
	if devs := ix.Devices("nope"); len(devs) != 0 {
		t.Errorf("Devices(nope) = %v, want empty", devs)
	}
}
