// Package device defines the capability interfaces instruments expose to
// plans, the label index and the report formatter.
//
// The capability set is explicit rather than probed: a device implements
// Readable, Settable, Positioner, Parent or Labeled as applicable, and
// consumers type-assert against exactly the capability they need. Devices are
// owned by the caller's namespace; everything in this module holds references
// only.
package device
