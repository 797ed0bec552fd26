package civ

// Frame represents one logical CI-V message. The optional sub-command is
// only meaningful for the memory contents command family (0x1A); for every
// other command the first payload byte is plain data.
type Frame struct {
	Dest    byte
	Source  byte
	Command byte
	Sub     *byte
	Payload []byte
}

// NewFrame builds a command frame addressed from the controller to the radio.
func NewFrame(dest, source, command byte, payload []byte) Frame {
	return Frame{Dest: dest, Source: source, Command: command, Payload: payload}
}

// WithSub returns a copy of the frame carrying the given sub-command.
func (f Frame) WithSub(sub byte) Frame {
	f.Sub = &sub
	return f
}

// Marshal serializes the frame into its wire form:
// FE FE <dest> <source> <cmd> [sub] <payload...> FD
func (f Frame) Marshal() []byte {
	size := 6 + len(f.Payload)
	if f.Sub != nil {
		size++
	}
	buf := make([]byte, 0, size)
	buf = append(buf, Preamble, Preamble, f.Dest, f.Source, f.Command)
	if f.Sub != nil {
		buf = append(buf, *f.Sub)
	}
	buf = append(buf, f.Payload...)
	buf = append(buf, Terminator)
	return buf
}

// ParseFrame parses a complete wire frame. Validation is structural only:
// the protocol carries no checksum. A buffer shorter than 6 bytes, missing
// the double preamble, or missing the terminator is rejected.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < 6 {
		return Frame{}, ErrMalformedFrame
	}
	if data[0] != Preamble || data[1] != Preamble {
		return Frame{}, ErrMalformedFrame
	}
	if data[len(data)-1] != Terminator {
		return Frame{}, ErrMalformedFrame
	}

	f := Frame{
		Dest:    data[2],
		Source:  data[3],
		Command: data[4],
	}
	payload := data[5 : len(data)-1]
	if f.Command == CmdMemoryContents && len(payload) > 0 {
		sub := payload[0]
		f.Sub = &sub
		payload = payload[1:]
	}
	if len(payload) > 0 {
		f.Payload = append([]byte(nil), payload...)
	}
	return f, nil
}

// IsOK reports whether the frame is a positive acknowledgement.
func (f Frame) IsOK() bool { return f.Command == RespOK }

// IsNAK reports whether the frame is a negative acknowledgement.
func (f Frame) IsNAK() bool { return f.Command == RespNG }
