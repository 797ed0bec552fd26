package civ

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameMarshal(t *testing.T) {
	f := NewFrame(DefaultRadioAddress, DefaultControllerAddress, CmdSetFrequency,
		[]byte{0x00, 0x00, 0x20, 0x14, 0x00})
	want := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x05, 0x00, 0x00, 0x20, 0x14, 0x00, 0xFD}
	if got := f.Marshal(); !bytes.Equal(got, want) {
		t.Errorf("Marshal() = % X, want % X", got, want)
	}
}

func TestFrameMarshalWithSub(t *testing.T) {
	f := NewFrame(DefaultRadioAddress, DefaultControllerAddress, CmdMemoryContents,
		[]byte{0x00, 0x05}).WithSub(SubMemoryContents)
	want := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x1A, 0x00, 0x00, 0x05, 0xFD}
	if got := f.Marshal(); !bytes.Equal(got, want) {
		t.Errorf("Marshal() = % X, want % X", got, want)
	}
}

func TestParseFrame(t *testing.T) {
	t.Run("ok response", func(t *testing.T) {
		f, err := ParseFrame([]byte{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0xFD})
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if !f.IsOK() || f.IsNAK() {
			t.Errorf("expected OK frame, got command 0x%02X", f.Command)
		}
		if f.Dest != 0xE0 || f.Source != 0x94 {
			t.Errorf("addresses: dest 0x%02X source 0x%02X", f.Dest, f.Source)
		}
	})

	t.Run("nak response", func(t *testing.T) {
		f, err := ParseFrame([]byte{0xFE, 0xFE, 0xE0, 0x94, 0xFA, 0xFD})
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if !f.IsNAK() {
			t.Errorf("expected NAK frame, got command 0x%02X", f.Command)
		}
	})

	t.Run("memory contents splits sub-command", func(t *testing.T) {
		f, err := ParseFrame([]byte{0xFE, 0xFE, 0xE0, 0x94, 0x1A, 0x00, 0x00, 0x25, 0xFD})
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if f.Sub == nil || *f.Sub != SubMemoryContents {
			t.Fatalf("sub-command not split off: %+v", f)
		}
		if !bytes.Equal(f.Payload, []byte{0x00, 0x25}) {
			t.Errorf("payload = % X", f.Payload)
		}
	})

	t.Run("other commands keep first payload byte", func(t *testing.T) {
		f, err := ParseFrame([]byte{0xFE, 0xFE, 0x94, 0xE0, 0x06, 0x01, 0x01, 0xFD})
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if f.Sub != nil {
			t.Error("sub-command split for a non-1A command")
		}
		if !bytes.Equal(f.Payload, []byte{0x01, 0x01}) {
			t.Errorf("payload = % X", f.Payload)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		orig := NewFrame(0x94, 0xE0, CmdMemoryContents, []byte{0x00, 0x42}).WithSub(0x00)
		f, err := ParseFrame(orig.Marshal())
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if !bytes.Equal(f.Marshal(), orig.Marshal()) {
			t.Errorf("round trip changed frame: % X vs % X", f.Marshal(), orig.Marshal())
		}
	})
}

func TestParseFrameMalformed(t *testing.T) {
	cases := [][]byte{
		nil,
		{0xFE, 0xFE, 0xFD},                   // too short
		{0xFE, 0x00, 0xE0, 0x94, 0xFB, 0xFD}, // single preamble
		{0x00, 0xFE, 0xE0, 0x94, 0xFB, 0xFD}, // wrong first byte
		{0xFE, 0xFE, 0xE0, 0x94, 0xFB, 0x00}, // missing terminator
	}
	for _, data := range cases {
		if _, err := ParseFrame(data); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("ParseFrame(% X): got %v, want ErrMalformedFrame", data, err)
		}
	}
}
