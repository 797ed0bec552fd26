package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSlot is the highest regular memory slot on the IC-7300.
const MaxSlot = 99

// Mode is an operating mode. Values match the CI-V wire encoding.
type Mode byte

const (
	ModeLSB   Mode = 0x00
	ModeUSB   Mode = 0x01
	ModeAM    Mode = 0x02
	ModeCW    Mode = 0x03
	ModeRTTY  Mode = 0x04
	ModeFM    Mode = 0x05
	ModeCWR   Mode = 0x07 // CW reverse
	ModeRTTYR Mode = 0x08 // RTTY reverse
	ModeLSBD  Mode = 0x80 // LSB data
	ModeUSBD  Mode = 0x81 // USB data
	ModeAMD   Mode = 0x82 // AM data
	ModeFMD   Mode = 0x85 // FM data
)

var modeNames = map[Mode]string{
	ModeLSB:   "LSB",
	ModeUSB:   "USB",
	ModeAM:    "AM",
	ModeCW:    "CW",
	ModeRTTY:  "RTTY",
	ModeFM:    "FM",
	ModeCWR:   "CW-R",
	ModeRTTYR: "RTTY-R",
	ModeLSBD:  "LSB-D",
	ModeUSBD:  "USB-D",
	ModeAMD:   "AM-D",
	ModeFMD:   "FM-D",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(0x%02X)", byte(m))
}

// ParseMode resolves a mode name such as "USB" or "FM-D".
func ParseMode(s string) (Mode, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == want {
			return m, nil
		}
	}
	return ModeUSB, fmt.Errorf("unknown mode %q", s)
}

// Filter is an IF filter width. FIL1 is the widest.
type Filter byte

const (
	Filter1 Filter = 0x01
	Filter2 Filter = 0x02
	Filter3 Filter = 0x03
)

func (f Filter) String() string {
	switch f {
	case Filter1:
		return "FIL1"
	case Filter2:
		return "FIL2"
	case Filter3:
		return "FIL3"
	}
	return fmt.Sprintf("Filter(0x%02X)", byte(f))
}

// ParseFilter resolves a filter name such as "FIL2".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIL1", "WIDE", "":
		return Filter1, nil
	case "FIL2", "MEDIUM":
		return Filter2, nil
	case "FIL3", "NARROW":
		return Filter3, nil
	}
	return Filter1, fmt.Errorf("unknown filter %q", s)
}

// Duplex selects simplex or split operation.
type Duplex byte

const (
	DuplexSimplex Duplex = 0x00
	DuplexSplit   Duplex = 0x01
)

func (d Duplex) String() string {
	if d == DuplexSplit {
		return "SPLIT"
	}
	return "SIMPLEX"
}

// ToneMode selects the sub-audible tone operation.
type ToneMode byte

const (
	ToneOff  ToneMode = 0x00
	ToneEnc  ToneMode = 0x01 // CTCSS encode
	ToneTSQL ToneMode = 0x02 // CTCSS encode/decode
	ToneDTCS ToneMode = 0x03 // digital code squelch
)

func (t ToneMode) String() string {
	switch t {
	case ToneEnc:
		return "TONE"
	case ToneTSQL:
		return "TSQL"
	case ToneDTCS:
		return "DTCS"
	}
	return "OFF"
}

// CTCSSTones lists the 50 standard sub-audible tone frequencies in Hz.
var CTCSSTones = [50]float64{
	67.0, 69.3, 71.9, 74.4, 77.0, 79.7, 82.5, 85.4, 88.5, 91.5,
	94.8, 97.4, 100.0, 103.5, 107.2, 110.9, 114.8, 118.8, 123.0, 127.3,
	131.8, 136.5, 141.3, 146.2, 151.4, 156.7, 159.8, 162.2, 165.5, 167.9,
	171.3, 173.8, 177.3, 179.9, 183.5, 186.2, 189.9, 192.8, 196.6, 199.5,
	203.5, 206.5, 210.7, 218.1, 225.7, 229.1, 233.6, 241.8, 250.3, 254.1,
}

// Channel is one memory slot record. A channel with Empty set carries no
// meaningful frequency or mode and is never transmitted to the radio.
type Channel struct {
	Slot          int      `json:"slot"`
	Name          string   `json:"name"`
	RxFrequency   uint64   `json:"rx_frequency"`
	TxFrequency   uint64   `json:"tx_frequency"`
	Mode          Mode     `json:"-"`
	Filter        Filter   `json:"-"`
	Duplex        Duplex   `json:"-"`
	ToneMode      ToneMode `json:"-"`
	ToneFrequency float64  `json:"tone_frequency"`
	DTCSCode      int      `json:"dtcs_code"`
	TuningStep    int      `json:"tuning_step"`
	Empty         bool     `json:"empty"`
	Group         string   `json:"group,omitempty"`
}

// EmptyChannel returns the blank record a slot holds before anything is
// programmed into it.
func EmptyChannel(slot int) Channel {
	return Channel{Slot: slot, Empty: true}
}

// DefaultChannel returns a freshly-programmed channel carrying the usual
// defaults for fields the caller did not set.
func DefaultChannel(slot int) Channel {
	return Channel{
		Slot:          slot,
		RxFrequency:   14_200_000,
		TxFrequency:   14_200_000,
		Mode:          ModeUSB,
		Filter:        Filter1,
		Duplex:        DuplexSimplex,
		ToneMode:      ToneOff,
		ToneFrequency: 88.5,
		DTCSCode:      23,
		TuningStep:    100,
	}
}

// Band is one amateur allocation used for display grouping.
type Band struct {
	Name string
	Min  uint64
	Max  uint64
}

// Bands lists the IC-7300's amateur bands in ascending frequency order.
var Bands = []Band{
	{"160m", 1_800_000, 2_000_000},
	{"80m", 3_500_000, 4_000_000},
	{"60m", 5_330_500, 5_405_000},
	{"40m", 7_000_000, 7_300_000},
	{"30m", 10_100_000, 10_150_000},
	{"20m", 14_000_000, 14_350_000},
	{"17m", 18_068_000, 18_168_000},
	{"15m", 21_000_000, 21_450_000},
	{"12m", 24_890_000, 24_990_000},
	{"10m", 28_000_000, 29_700_000},
	{"6m", 50_000_000, 54_000_000},
	{"4m", 70_000_000, 70_500_000},
}

// BandFor returns the band name covering the given frequency, or "".
func BandFor(hz uint64) string {
	for _, b := range Bands {
		if hz >= b.Min && hz <= b.Max {
			return b.Name
		}
	}
	return ""
}

// FormatFrequency renders a frequency in Hz with dotted groups, the way the
// radio's display does: 14200000 -> "14.200.000".
func FormatFrequency(hz uint64) string {
	s := strconv.FormatUint(hz, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// ParseFrequency parses a frequency given in MHz (e.g. "14.200") to Hz.
func ParseFrequency(s string) (uint64, error) {
	var cleaned strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			cleaned.WriteRune(c)
		}
	}
	mhz, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return uint64(mhz*1_000_000 + 0.5), nil
}
