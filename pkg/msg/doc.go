// Package msg defines the instruction vocabulary exchanged between a plan and
// the interpreter that executes it against hardware.
//
// A plan produces an ordered, finite sequence of Msg values. The interpreter
// consumes them one at a time and, for commands that return data (read), sends
// a value back into the plan before pulling the next message.
//
// # Ordering contract
//
// Every set/trigger issued under a block-group key must be matched by exactly
// one wait on that key before any read of the associated device. A
// configure/deconfigure bracket for a device must not overlap another
// configure of the same device within one plan.
//
// # Wire encoding
//
// Messages encode as CBOR maps with integer keys for interoperability with an
// existing interpreter implementation:
//
//	{
//	  1: command,     // uint8
//	  2: device name, // string, omitted when the command has no target
//	  3: args,        // array, command-specific
//	  4: kwargs,      // map, command-specific
//	  5: block group  // string, omitted when untagged
//	}
//
// The device is carried by name only; live handles never cross the wire.
package msg
