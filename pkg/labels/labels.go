// Package labels resolves capability labels to concrete device handles.
//
// Callers keep their devices in a flat name-to-device namespace. The index
// walks that namespace, recursing into parents' sub-namespaces, and collects
// every labeled leaf device under each of its labels. Labels are never
// inherited between parents and children.
package labels

import (
	"sort"
	"strings"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
)

// excludedPrefix marks namespace entries the index skips, typically
// bookkeeping values stored alongside devices.
const excludedPrefix = "_"

// DefaultMaxDepth bounds recursion on pathological device graphs.
const DefaultMaxDepth = 6

// Entry is one (name, device) pair collected under a label.
type Entry struct {
	Name   string
	Device device.Device
}

// Index maps a label to the devices carrying it, in encounter order.
type Index map[string][]Entry

// Devices returns the device handles collected under a label, in order.
func (ix Index) Devices(label string) []device.Device {
	entries := ix[label]
	out := make([]device.Device, len(entries))
	for i, e := range entries {
		out[i] = e.Device
	}
	return out
}

// Labels returns the sorted labels present in the index.
func (ix Index) Labels() []string {
	out := make([]string, 0, len(ix))
	for l := range ix {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// WarnFunc receives non-fatal warnings raised during a query, e.g. a branch
// abandoned at the recursion bound. A nil WarnFunc discards warnings.
type WarnFunc func(format string, args ...any)

// Option configures a Find query.
type Option func(*finder)

// WithMaxDepth overrides the recursion depth bound.
func WithMaxDepth(depth int) Option {
	return func(f *finder) { f.maxDepth = depth }
}

// WithWarnings routes non-fatal warnings to fn.
func WithWarnings(fn WarnFunc) Option {
	return func(f *finder) { f.warn = fn }
}

type finder struct {
	maxDepth int
	warn     WarnFunc
}

// Find builds the label index for a namespace. Traversal is in sorted name
// order, so the per-label entry order is deterministic. Entries whose name
// starts with the excluded prefix are skipped. Parents are recursed into at
// depth-1 and contribute no label entries of their own; exhausting the depth
// bound abandons that branch with a warning and an empty partial result,
// leaving the rest of the query intact.
//
// When the same label surfaces at multiple depths, the lists are
// concatenated: the index collects all matching devices.
func Find(ns map[string]device.Device, opts ...Option) Index {
	f := &finder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(f)
	}
	out := make(Index)
	f.collect(ns, f.maxDepth, out)
	return out
}

func (f *finder) collect(ns map[string]device.Device, depth int, out Index) {
	if depth <= 0 {
		if f.warn != nil {
			f.warn("label recursion limit exceeded, branch skipped")
		}
		return
	}

	names := make([]string, 0, len(ns))
	for name := range ns {
		if strings.HasPrefix(name, excludedPrefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := ns[name]
		if d == nil {
			continue
		}
		if device.IsParent(d) {
			f.collect(d.(device.Parent).Components(), depth-1, out)
			continue
		}
		labeled, ok := d.(device.Labeled)
		if !ok {
			continue
		}
		for _, label := range labeled.Labels() {
			out[label] = append(out[label], Entry{Name: name, Device: d})
		}
	}
}
