package civ

import (
	"bytes"
	"testing"
	"time"
)

// fakeRadio emulates the half-duplex serial link: every written frame is
// echoed back verbatim, then answered according to a small behavior table.
// Slot records live in a map keyed by slot number.
type fakeRadio struct {
	records map[int][]byte
	nakAll  bool
	silent  map[byte]bool // commands that get no reply at all

	writes [][]byte
	rx     []byte
}

func newFakeRadio() *fakeRadio {
	return &fakeRadio{
		records: make(map[int][]byte),
		silent:  make(map[byte]bool),
	}
}

func (r *fakeRadio) Write(p []byte) (int, error) {
	frame := append([]byte(nil), p...)
	r.writes = append(r.writes, frame)

	// Echo first, reply second: exactly what the shared bus produces.
	r.rx = append(r.rx, frame...)
	if reply := r.reply(frame); reply != nil {
		r.rx = append(r.rx, reply...)
	}
	return len(p), nil
}

func (r *fakeRadio) Read(p []byte) (int, error) {
	if len(r.rx) == 0 {
		return 0, nil
	}
	n := copy(p, r.rx)
	r.rx = r.rx[n:]
	return n, nil
}

func (r *fakeRadio) reply(raw []byte) []byte {
	f, err := ParseFrame(raw)
	if err != nil {
		return nil
	}
	if r.silent[f.Command] {
		return nil
	}
	if r.nakAll {
		return NewFrame(f.Source, f.Dest, RespNG, nil).Marshal()
	}

	if f.Command == CmdMemoryContents && f.Sub != nil {
		switch {
		case len(f.Payload) == 2:
			// Record read request
			slot := decodeSlot(f.Payload[1])
			rec, ok := r.records[slot]
			if !ok {
				return NewFrame(f.Source, f.Dest, RespNG, nil).Marshal()
			}
			resp := NewFrame(f.Source, f.Dest, CmdMemoryContents, rec[1:]).WithSub(rec[0])
			return resp.Marshal()

		case len(f.Payload) == 3 && f.Payload[2] == ClearMarker:
			delete(r.records, decodeSlot(f.Payload[1]))
			return NewFrame(f.Source, f.Dest, RespOK, nil).Marshal()

		default:
			// Record write: store sub + payload as the new record
			rec := append([]byte{*f.Sub}, f.Payload...)
			r.records[decodeSlot(f.Payload[1])] = rec
			return NewFrame(f.Source, f.Dest, RespOK, nil).Marshal()
		}
	}

	return NewFrame(f.Source, f.Dest, RespOK, nil).Marshal()
}

// seedRecord installs a plausible read-back record for a slot, the state the
// coarse write sequence leaves behind.
func (r *fakeRadio) seedRecord(slot int, hz uint64, mode, filter byte) {
	rec := make([]byte, recordLen)
	rec[0] = SubMemoryContents
	rec[1] = 0x00
	rec[2] = encodeSlot(slot)
	freq := EncodeFrequency(hz)
	copy(rec[offRxFreq:], freq[:])
	rec[offMode] = mode
	rec[offFilter] = filter
	copy(rec[offTxFreq:], freq[:])
	for i := recordLen - nameLen; i < recordLen; i++ {
		rec[i] = ' '
	}
	r.records[slot] = rec
}

func testSession(link *fakeRadio) *Session {
	return NewSession(link,
		WithTimeout(100*time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithPacing(0),
	)
}

func TestWriteChannelFullSuccess(t *testing.T) {
	radio := newFakeRadio()
	radio.seedRecord(25, 14_200_000, ModeUSB, Filter1)
	s := testSession(radio)

	result, err := s.WriteChannel(ChannelData{
		Slot:   25,
		Name:   "DX NET",
		RxFreq: 14_200_000,
		TxFreq: 14_210_000,
		Mode:   ModeUSB,
		Filter: Filter1,
		Split:  true,
	})
	if err != nil {
		t.Fatalf("WriteChannel: %v", err)
	}
	if !result.Basic || !result.Extended {
		t.Errorf("result = %+v, want full success", result)
	}

	// Commands must run in the documented order
	wantOrder := []byte{CmdSelectVFO, CmdSetFrequency, CmdSetMode, CmdSelectMemory, CmdMemoryWrite}
	if len(radio.writes) < len(wantOrder) {
		t.Fatalf("only %d frames written", len(radio.writes))
	}
	for i, cmd := range wantOrder {
		f, _ := ParseFrame(radio.writes[i])
		if f.Command != cmd {
			t.Errorf("step %d: command 0x%02X, want 0x%02X", i, f.Command, cmd)
		}
	}

	// The patched record must carry name, split and TX frequency
	rec := radio.records[25]
	if rec[offFlags]&splitFlag == 0 {
		t.Error("split flag not set in stored record")
	}
	if got := DecodeFrequency(rec[offTxFreq : offTxFreq+5]); got != 14_210_000 {
		t.Errorf("stored tx = %d", got)
	}
	if !bytes.Equal(rec[recordLen-nameLen:], []byte("DX NET    ")) {
		t.Errorf("stored name = %q", rec[recordLen-nameLen:])
	}
}

func TestWriteChannelPartialSuccess(t *testing.T) {
	radio := newFakeRadio()
	// No seeded record and silence on 1A: the record phase times out after
	// the five coarse steps succeeded.
	radio.silent[CmdMemoryContents] = true
	s := testSession(radio)

	result, err := s.WriteChannel(ChannelData{
		Slot:   7,
		Name:   "LOST",
		RxFreq: 7_074_000,
		Mode:   ModeUSBD,
		Filter: Filter1,
	})
	if err != nil {
		t.Fatalf("partial success must not be an error, got %v", err)
	}
	if !result.Basic || result.Extended {
		t.Errorf("result = %+v, want basic-only", result)
	}
	if result.FailedStep == "" {
		t.Error("failed step not reported")
	}
}

func TestWriteChannelStepFailure(t *testing.T) {
	radio := newFakeRadio()
	radio.nakAll = true
	s := testSession(radio)

	result, err := s.WriteChannel(ChannelData{Slot: 3, RxFreq: 7_000_000, Mode: ModeCW, Filter: Filter2})
	if err == nil {
		t.Fatal("expected error when every command is rejected")
	}
	if !IsNAK(err) {
		t.Errorf("error %v does not unwrap to NAK", err)
	}
	if result.Basic {
		t.Error("basic reported despite first-step failure")
	}
}

func TestReadChannel(t *testing.T) {
	radio := newFakeRadio()
	radio.seedRecord(42, 21_300_000, ModeLSB, Filter2)
	s := testSession(radio)

	data, found, err := s.ReadChannel(42)
	if err != nil {
		t.Fatalf("ReadChannel: %v", err)
	}
	if !found {
		t.Fatal("seeded slot reported empty")
	}
	if data.RxFreq != 21_300_000 || data.Mode != ModeLSB || data.Filter != Filter2 {
		t.Errorf("data = %+v", data)
	}
}

func TestReadChannelEmptySlot(t *testing.T) {
	radio := newFakeRadio()
	s := testSession(radio)

	_, found, err := s.ReadChannel(9)
	if err != nil {
		t.Fatalf("NAK for an empty slot must not be an error, got %v", err)
	}
	if found {
		t.Error("empty slot reported found")
	}
}

func TestClearChannel(t *testing.T) {
	radio := newFakeRadio()
	radio.seedRecord(15, 14_074_000, ModeUSBD, Filter1)
	s := testSession(radio)

	if err := s.ClearChannel(15); err != nil {
		t.Fatalf("ClearChannel: %v", err)
	}
	if _, ok := radio.records[15]; ok {
		t.Error("record still present after clear")
	}

	// The clear frame is 1A 00 <slot> FF
	last := radio.writes[len(radio.writes)-1]
	want := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x1A, 0x00, 0x00, 0x15, 0xFF, 0xFD}
	if !bytes.Equal(last, want) {
		t.Errorf("clear frame = % X, want % X", last, want)
	}
}

func TestReadAllChannelsSkipsEmptyAndKeepsGoing(t *testing.T) {
	radio := newFakeRadio()
	radio.seedRecord(1, 7_074_000, ModeUSBD, Filter1)
	radio.seedRecord(3, 14_074_000, ModeUSBD, Filter1)
	s := testSession(radio)

	var progressCalls int
	channels := s.ReadAllChannels(0, 4, func(current, total int) { progressCalls++ })
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	if channels[0].Slot != 1 || channels[1].Slot != 3 {
		t.Errorf("slots = %d, %d", channels[0].Slot, channels[1].Slot)
	}
	if progressCalls != 5 {
		t.Errorf("progress called %d times, want 5", progressCalls)
	}
}
