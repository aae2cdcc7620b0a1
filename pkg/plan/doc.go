// Package plan generates ordered command sequences that drive instruments
// through an external interpreter.
//
// A plan is a value with a fixed set of named fields and a production routine
// that yields a finite sequence of messages. Production is pull-based: the
// driver calls Iterator.Next with the response to the previous message (nil
// for commands that return nothing) and receives the next message. Only one
// message is in flight per plan at a time.
//
// Every produced sequence begins with exactly one logbook message whose
// payload is the plan's provenance record. Specialised plans reuse the
// generic per-step loop by first establishing derived state (a concrete step
// list) and then delegating; the loop is unaware of how steps were computed.
//
// The interpreter may stop driving a plan at any suspension point. The
// configure/deconfigure bracket is a scoped acquisition: after Iterator.Stop,
// the pending deconfigure messages are still delivered through Next before
// the sequence ends.
package plan
