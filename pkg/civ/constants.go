package civ

// CI-V framing markers
const (
	Preamble   = 0xFE
	Terminator = 0xFD
)

// CI-V command codes used by the memory manager
const (
	CmdSetFrequency   = 0x05 // set VFO frequency, 5-byte BCD payload
	CmdSetMode        = 0x06 // set operating mode, mode byte + filter byte
	CmdSelectVFO      = 0x07 // select VFO working register
	CmdSelectMemory   = 0x08 // select memory channel, 1-byte BCD slot
	CmdMemoryWrite    = 0x09 // write current VFO into the selected slot
	CmdMemoryClear    = 0x0B // clear the selected memory channel
	CmdSplit          = 0x0F // split on/off, 1-byte boolean
	CmdMemoryContents = 0x1A // memory channel contents read/write family
)

// Sub-command selecting the full channel record under CmdMemoryContents.
const SubMemoryContents = 0x00

// Payload marker that clears a channel when sent in place of record data.
const ClearMarker = 0xFF

// CI-V response codes
const (
	RespOK = 0xFB
	RespNG = 0xFA
)

// Default CI-V bus addresses for the IC-7300.
const (
	DefaultRadioAddress      = 0x94
	DefaultControllerAddress = 0xE0
)

// Wire values for operating modes the IC-7300 accepts.
const (
	ModeLSB   = 0x00
	ModeUSB   = 0x01
	ModeAM    = 0x02
	ModeCW    = 0x03
	ModeRTTY  = 0x04
	ModeFM    = 0x05
	ModeCWR   = 0x07
	ModeRTTYR = 0x08
	ModeLSBD  = 0x80
	ModeUSBD  = 0x81
	ModeAMD   = 0x82
	ModeFMD   = 0x85
)

// Filter width wire values, FIL1 is the widest.
const (
	Filter1 = 0x01
	Filter2 = 0x02
	Filter3 = 0x03
)

// validMode reports whether b is a mode byte the radio can produce.
func validMode(b byte) bool {
	switch b {
	case ModeLSB, ModeUSB, ModeAM, ModeCW, ModeRTTY, ModeFM,
		ModeCWR, ModeRTTYR, ModeLSBD, ModeUSBD, ModeAMD, ModeFMD:
		return true
	}
	return false
}

// validFilter reports whether b is a known filter width byte.
func validFilter(b byte) bool {
	return b >= Filter1 && b <= Filter3
}
