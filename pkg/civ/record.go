package civ

import "strings"

// Packed channel record layout returned by command 1A 00 (42 bytes):
//
//	00       sub-command (0x00)
//	01-02    channel number (BCD, high byte then low)
//	03       split/select flags (bit 4 = split enabled)
//	04-08    RX frequency (5-byte BCD)
//	09       RX mode
//	10       RX filter
//	11       RX data mode / tone type
//	12-14    RX repeater tone
//	15-17    RX tone squelch
//	18-22    TX frequency (5-byte BCD)
//	23       TX mode
//	24       TX filter
//	25       TX data mode / tone type
//	26-28    TX repeater tone
//	29-31    TX tone squelch
//	32-41    name (10 bytes, space padded)
const (
	recordLen      = 42
	recordShortLen = 32 // enough for frequency/mode fields only

	offFlags  = 3
	offRxFreq = 4
	offMode   = 9
	offFilter = 10
	offTxFreq = 18
	nameLen   = 10

	splitFlag = 0x10
)

// ChannelData is the protocol-level view of one memory slot. Mode and
// filter stay raw wire bytes here; richer enumerations live with the
// channel store.
type ChannelData struct {
	Slot      int
	Name      string
	RxFreq    uint64
	TxFreq    uint64
	Mode      byte
	Filter    byte
	Split     bool
	TuningHz  int

	// ModeDefaulted / FilterDefaulted flag that the wire byte was out of
	// range and a safe default was substituted during decode.
	ModeDefaulted   bool
	FilterDefaulted bool
}

// parseChannelRecord decodes a packed record. Records of at least 32 bytes
// yield frequency and mode; name and split flag need the full 42 bytes and
// are left zero otherwise. Out-of-range mode or filter bytes fall back to
// USB / FIL1 with the corresponding Defaulted flag set.
func parseChannelRecord(rec []byte, slot int) (ChannelData, error) {
	if len(rec) < recordShortLen {
		return ChannelData{}, ErrMalformedFrame
	}

	data := ChannelData{
		Slot:   slot,
		RxFreq: DecodeFrequency(rec[offRxFreq : offRxFreq+5]),
		TxFreq: DecodeFrequency(rec[offTxFreq : offTxFreq+5]),
	}

	data.Mode = rec[offMode]
	if !validMode(data.Mode) {
		data.Mode = ModeUSB
		data.ModeDefaulted = true
	}
	data.Filter = rec[offFilter]
	if !validFilter(data.Filter) {
		data.Filter = Filter1
		data.FilterDefaulted = true
	}

	if len(rec) >= recordLen {
		data.Split = rec[offFlags]&splitFlag != 0
		data.Name = decodeName(rec[len(rec)-nameLen:])
	}
	return data, nil
}

// patchChannelRecord overwrites the name, split flag and RX/TX frequency
// fields of a read-back record in place, leaving every other byte (tones,
// data modes, filters) exactly as the radio reported them.
func patchChannelRecord(rec []byte, data ChannelData) {
	if data.Split {
		rec[offFlags] |= splitFlag
	} else {
		rec[offFlags] &^= splitFlag
	}

	rx := EncodeFrequency(data.RxFreq)
	copy(rec[offRxFreq:offRxFreq+5], rx[:])
	tx := EncodeFrequency(data.TxFreq)
	copy(rec[offTxFreq:offTxFreq+5], tx[:])

	copy(rec[len(rec)-nameLen:], encodeName(data.Name))
}

// encodeName produces the 10-byte space-padded ASCII wire form. Bytes
// outside printable ASCII are replaced rather than rejected.
func encodeName(name string) []byte {
	out := make([]byte, nameLen)
	for i := range out {
		out[i] = ' '
	}
	for i := 0; i < len(name) && i < nameLen; i++ {
		c := name[i]
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		out[i] = c
	}
	return out
}

// decodeName trims wire padding and drops undecodable bytes.
func decodeName(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c == 0 {
			continue
		}
		if c < 0x20 || c > 0x7E {
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}
