package msg

// Command identifies one instruction in the plan/interpreter vocabulary.
type Command uint8

const (
	// CmdConfigure prepares a device for the plan. Must be paired with a
	// later CmdDeconfigure of the same device.
	CmdConfigure Command = 1

	// CmdDeconfigure releases a device configured earlier in the plan.
	CmdDeconfigure Command = 2

	// CmdCheckpoint marks a safe point for the interpreter to pause, resume
	// or rewind without corrupting plan semantics.
	CmdCheckpoint Command = 3

	// CmdCreate opens a new logical event (one row of correlated readings).
	CmdCreate Command = 4

	// CmdSet commands a settable device toward a value. Completion is
	// asynchronous and joins at a CmdWait on the same block group.
	CmdSet Command = 5

	// CmdTrigger starts an acquisition on a readable device. Asynchronous,
	// joins via CmdWait.
	CmdTrigger Command = 6

	// CmdWait suspends the plan until all outstanding set/trigger calls
	// tagged with the given block group complete.
	CmdWait Command = 7

	// CmdRead returns, into the plan, a mapping from field name to Reading
	// for the target device.
	CmdRead Command = 8

	// CmdSave closes the current event, committing accumulated reads.
	CmdSave Command = 9

	// CmdSleep requests a delay before the next message is processed.
	CmdSleep Command = 10

	// CmdLogbook records provenance. Always the first message of any plan.
	CmdLogbook Command = 11
)

// String returns the command name as it appears on the wire contract.
func (c Command) String() string {
	switch c {
	case CmdConfigure:
		return "configure"
	case CmdDeconfigure:
		return "deconfigure"
	case CmdCheckpoint:
		return "checkpoint"
	case CmdCreate:
		return "create"
	case CmdSet:
		return "set"
	case CmdTrigger:
		return "trigger"
	case CmdWait:
		return "wait"
	case CmdRead:
		return "read"
	case CmdSave:
		return "save"
	case CmdSleep:
		return "sleep"
	case CmdLogbook:
		return "logbook"
	default:
		return "unknown"
	}
}

// IsValid returns true if the command is part of the vocabulary.
func (c Command) IsValid() bool {
	return c >= CmdConfigure && c <= CmdLogbook
}

// Returns returns true if the interpreter sends a value back into the plan
// after executing the command.
func (c Command) Returns() bool {
	return c == CmdRead
}
