package msg

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano, // Readings carry nanosecond timestamps
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// wireMsg is the integer-keyed wire form of a Msg. The device is carried by
// name; the live handle stays on the producing side.
type wireMsg struct {
	Command    Command        `cbor:"1,keyasint"`
	Device     string         `cbor:"2,keyasint,omitempty"`
	Args       []any          `cbor:"3,keyasint,omitempty"`
	KWArgs     map[string]any `cbor:"4,keyasint,omitempty"`
	BlockGroup string         `cbor:"5,keyasint,omitempty"`
}

// Encode encodes a message to CBOR bytes.
func Encode(m *Msg) ([]byte, error) {
	if !m.Command.IsValid() {
		return nil, fmt.Errorf("invalid command: %d", m.Command)
	}
	w := wireMsg{
		Command:    m.Command,
		Args:       m.Args,
		KWArgs:     m.KWArgs,
		BlockGroup: m.BlockGroup,
	}
	if m.Device != nil {
		w.Device = m.Device.Name()
	}
	return encMode.Marshal(w)
}

// Decode decodes CBOR bytes into a message. The target, when present, is
// restored as a Ref carrying the device name only.
func Decode(data []byte) (*Msg, error) {
	var w wireMsg
	if err := decMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if !w.Command.IsValid() {
		return nil, fmt.Errorf("invalid command: %d", w.Command)
	}
	m := &Msg{
		Command:    w.Command,
		Args:       w.Args,
		KWArgs:     w.KWArgs,
		BlockGroup: w.BlockGroup,
	}
	if w.Device != "" {
		m.Device = Ref(w.Device)
	}
	return m, nil
}

// NewEncoder creates a CBOR encoder for messages that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for messages that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
