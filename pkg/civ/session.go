package civ

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
)

// Session owns one open CI-V link and runs command/response exchanges over
// it. The link is half duplex and not reentrant: exactly one exchange may be
// in flight at a time, and callers embedding a Session must serialize device
// operations behind their own guard.
type Session struct {
	link   io.ReadWriter
	closer io.Closer

	radioAddr byte
	ctrlAddr  byte

	timeout time.Duration // wall-clock wait for one reply
	poll    time.Duration // sleep between empty reads
	pacing  time.Duration // delay between bulk per-slot operations
}

// Option adjusts session parameters.
type Option func(*Session)

// WithAddresses overrides the CI-V bus addresses.
func WithAddresses(radio, controller byte) Option {
	return func(s *Session) {
		s.radioAddr = radio
		s.ctrlAddr = controller
	}
}

// WithTimeout sets the per-exchange reply timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithPollInterval sets the sleep between empty link reads.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.poll = d }
}

// WithPacing sets the delay between per-slot operations in bulk loops.
func WithPacing(d time.Duration) Option {
	return func(s *Session) { s.pacing = d }
}

// NewSession wraps an already open link. Used directly by tests; production
// code goes through Dial.
func NewSession(link io.ReadWriter, opts ...Option) *Session {
	s := &Session{
		link:      link,
		radioAddr: DefaultRadioAddress,
		ctrlAddr:  DefaultControllerAddress,
		timeout:   time.Second,
		poll:      10 * time.Millisecond,
		pacing:    50 * time.Millisecond,
	}
	if c, ok := link.(io.Closer); ok {
		s.closer = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial opens the serial device at 8N1 and returns a ready session.
func Dial(device string, baudRate int, opts ...Option) (*Session, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	s := NewSession(port, opts...)
	// Let Read return promptly so the reply loop's wall clock governs.
	if err := port.SetReadTimeout(s.poll); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure serial port %s: %w", device, err)
	}
	logging.Infof("civ", "opened %s at %d baud (radio 0x%02X, controller 0x%02X)",
		device, baudRate, s.radioAddr, s.ctrlAddr)
	return s, nil
}

// Close releases the underlying link if it is closable.
func (s *Session) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// frame builds a command frame addressed to the radio.
func (s *Session) frame(command byte, payload []byte) Frame {
	return NewFrame(s.radioAddr, s.ctrlAddr, command, payload)
}

// roundTrip sends one frame and waits for the radio's reply, draining the
// echo along the way.
func (s *Session) roundTrip(f Frame) (Frame, error) {
	if _, err := s.link.Write(f.Marshal()); err != nil {
		return Frame{}, fmt.Errorf("write failed: %w", err)
	}
	return readReply(s.link, s.radioAddr, s.timeout, s.poll)
}

// command runs an exchange that is only expected to produce OK or NG.
func (s *Session) command(name string, f Frame) error {
	resp, err := s.roundTrip(f)
	if err != nil {
		return &StepError{Step: name, Err: err}
	}
	if resp.IsNAK() {
		return &StepError{Step: name, Err: &NAKError{Operation: name}}
	}
	if !resp.IsOK() {
		return &StepError{Step: name, Err: fmt.Errorf("unexpected reply command 0x%02X", resp.Command)}
	}
	return nil
}

// WriteResult reports the two-phase outcome of a channel write. Basic covers
// the coarse VFO sequence (frequency, mode, slot); Extended covers the
// record patch that carries name, split flag and TX frequency. A write with
// Basic true and Extended false left a usable channel without its name.
type WriteResult struct {
	Basic      bool
	Extended   bool
	FailedStep string
}

// WriteChannel programs one memory slot. The sequence mirrors what the
// radio's coarse command set forces on us:
//
//  1. select the VFO working register
//  2. set frequency
//  3. set mode and filter
//  4. select the target memory slot
//  5. write the VFO into the selected slot (no payload)
//  6. read back the slot's packed record
//  7. patch name, split flag and TX frequency into the buffer
//  8. write the patched record back
//
// Steps 6-8 failing does not undo steps 1-5: the basic channel persists and
// the result reports the partial success.
func (s *Session) WriteChannel(data ChannelData) (WriteResult, error) {
	rx := EncodeFrequency(data.RxFreq)

	steps := []struct {
		name  string
		frame Frame
	}{
		{"select VFO", s.frame(CmdSelectVFO, []byte{0x00})},
		{"set frequency", s.frame(CmdSetFrequency, rx[:])},
		{"set mode", s.frame(CmdSetMode, []byte{data.Mode, data.Filter})},
		{"select memory slot", s.frame(CmdSelectMemory, []byte{encodeSlot(data.Slot)})},
		{"memory write", s.frame(CmdMemoryWrite, nil)},
	}
	for _, step := range steps {
		if err := s.command(step.name, step.frame); err != nil {
			logging.Debugf("civ", "write slot %d: %v", data.Slot, err)
			return WriteResult{FailedStep: step.name}, err
		}
	}

	if step, err := s.writeChannelRecord(data); err != nil {
		// Partial success, documented behavior: keep the basic channel.
		logging.Warnf("civ", "write slot %d: basic channel written, record patch failed at %s: %v",
			data.Slot, step, err)
		return WriteResult{Basic: true, FailedStep: step}, nil
	}

	logging.Debugf("civ", "write slot %d: ok", data.Slot)
	return WriteResult{Basic: true, Extended: true}, nil
}

// writeChannelRecord runs the read-patch-write cycle for the fields the
// coarse commands cannot reach. Returns the failing step name on error.
func (s *Session) writeChannelRecord(data ChannelData) (string, error) {
	rec, found, err := s.readRecord(data.Slot)
	if err != nil {
		return "record read", err
	}
	if !found || len(rec) < recordLen {
		return "record read", fmt.Errorf("slot %d returned no usable record", data.Slot)
	}

	patchChannelRecord(rec, data)

	// The same 1A 00 command writes when record data follows the slot
	// address; the leading sub-command byte travels in the frame header.
	f := s.frame(CmdMemoryContents, rec[1:]).WithSub(SubMemoryContents)
	if err := s.command("record write", f); err != nil {
		return "record write", err
	}
	return "", nil
}

// ClearChannel erases one slot via 1A 00 <slot> FF. This path bypasses slot
// selection so the radio's active display is undisturbed.
func (s *Session) ClearChannel(slot int) error {
	payload := []byte{0x00, encodeSlot(slot), ClearMarker}
	f := s.frame(CmdMemoryContents, payload).WithSub(SubMemoryContents)
	if err := s.command("clear slot", f); err != nil {
		return err
	}
	logging.Debugf("civ", "cleared slot %d", slot)
	return nil
}

// ReadChannel reads one slot's record. A NAK from the radio means the slot
// is empty, reported as found=false with no error.
func (s *Session) ReadChannel(slot int) (ChannelData, bool, error) {
	rec, found, err := s.readRecord(slot)
	if err != nil {
		return ChannelData{}, false, err
	}
	if !found {
		return ChannelData{}, false, nil
	}

	data, err := parseChannelRecord(rec, slot)
	if err != nil {
		return ChannelData{}, false, &StepError{Step: "record parse", Err: err}
	}
	if data.ModeDefaulted {
		logging.Warnf("civ", "slot %d: unknown mode byte 0x%02X, defaulting to USB", slot, rec[offMode])
	}
	if data.FilterDefaulted {
		logging.Warnf("civ", "slot %d: unknown filter byte 0x%02X, defaulting to FIL1", slot, rec[offFilter])
	}
	return data, true, nil
}

// readRecord fetches the raw packed record for a slot, reassembling the
// sub-command byte the frame parser splits off.
func (s *Session) readRecord(slot int) ([]byte, bool, error) {
	f := s.frame(CmdMemoryContents, []byte{0x00, encodeSlot(slot)}).WithSub(SubMemoryContents)
	resp, err := s.roundTrip(f)
	if err != nil {
		return nil, false, &StepError{Step: "record read", Err: err}
	}
	if resp.IsNAK() {
		return nil, false, nil
	}
	if resp.Command != CmdMemoryContents || resp.Sub == nil {
		return nil, false, &StepError{
			Step: "record read",
			Err:  fmt.Errorf("unexpected reply command 0x%02X", resp.Command),
		}
	}
	rec := make([]byte, 0, len(resp.Payload)+1)
	rec = append(rec, *resp.Sub)
	rec = append(rec, resp.Payload...)
	return rec, true, nil
}

// ReadAllChannels reads an inclusive slot range in ascending order. A slot
// failure never aborts the loop; empty and unreadable slots are skipped.
// The pacing delay between slots respects the radio's processing latency.
func (s *Session) ReadAllChannels(start, end int, progress func(current, total int)) []ChannelData {
	var out []ChannelData
	for slot := start; slot <= end; slot++ {
		if progress != nil {
			progress(slot, end)
		}
		data, found, err := s.ReadChannel(slot)
		if err != nil {
			logging.Debugf("civ", "read slot %d: %v", slot, err)
		} else if found {
			out = append(out, data)
		}
		time.Sleep(s.pacing)
	}
	return out
}

// SetSplit switches split operation on or off.
func (s *Session) SetSplit(enabled bool) error {
	payload := []byte{0x00}
	if enabled {
		payload[0] = 0x01
	}
	return s.command("set split", s.frame(CmdSplit, payload))
}

// Pacing exposes the configured bulk pacing delay for callers running their
// own per-slot loops.
func (s *Session) Pacing() time.Duration { return s.pacing }
