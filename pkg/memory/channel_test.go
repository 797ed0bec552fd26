package memory

import (
	"testing"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/civ"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"USB", ModeUSB},
		{"usb", ModeUSB},
		{" cw ", ModeCW},
		{"USB-D", ModeUSBD},
		{"FM-D", ModeFMD},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMode("SSTV"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseFilter(t *testing.T) {
	for _, in := range []string{"FIL2", "fil2", "MEDIUM"} {
		got, err := ParseFilter(in)
		if err != nil || got != Filter2 {
			t.Errorf("ParseFilter(%q) = %v, %v", in, got, err)
		}
	}
	// Empty means the wide default
	if got, err := ParseFilter(""); err != nil || got != Filter1 {
		t.Errorf("ParseFilter(\"\") = %v, %v", got, err)
	}
	if _, err := ParseFilter("FIL9"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		hz   uint64
		want string
	}{
		{14_200_000, "20m"},
		{7_074_000, "40m"},
		{50_313_000, "6m"},
		{14_350_000, "20m"}, // inclusive upper edge
		{100_000_000, ""},   // outside every band
	}
	for _, tt := range tests {
		if got := BandFor(tt.hz); got != tt.want {
			t.Errorf("BandFor(%d) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		hz   uint64
		want string
	}{
		{14_200_000, "14.200.000"},
		{7_074_000, "7.074.000"},
		{475_000, "475.000"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatFrequency(tt.hz); got != tt.want {
			t.Errorf("FormatFrequency(%d) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"14.200", 14_200_000},
		{"7.074", 7_074_000},
		{"14.074000", 14_074_000},
		{"50.313 MHz", 50_313_000},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if err != nil {
			t.Errorf("ParseFrequency(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFrequency(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFrequency("not a number"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDeviceDataRoundTrip(t *testing.T) {
	ch := Channel{
		Slot:        12,
		Name:        "DX NET",
		RxFrequency: 14_200_000,
		TxFrequency: 14_210_000,
		Mode:        ModeUSB,
		Filter:      Filter1,
		Duplex:      DuplexSplit,
	}

	back := ChannelFromDevice(ch.DeviceData())
	if back.Slot != ch.Slot || back.Name != ch.Name {
		t.Errorf("identity lost: %+v", back)
	}
	if back.RxFrequency != ch.RxFrequency || back.TxFrequency != ch.TxFrequency {
		t.Errorf("frequencies lost: %+v", back)
	}
	if back.Mode != ch.Mode || back.Filter != ch.Filter || back.Duplex != ch.Duplex {
		t.Errorf("mode fields lost: %+v", back)
	}
}

func TestDeviceDataSimplexTxFallback(t *testing.T) {
	ch := Channel{Slot: 1, RxFrequency: 7_200_000, Mode: ModeLSB, Filter: Filter1}
	data := ch.DeviceData()
	if data.TxFreq != 7_200_000 {
		t.Errorf("tx = %d, want rx fallback", data.TxFreq)
	}
}

func TestChannelFromDeviceZeroTx(t *testing.T) {
	ch := ChannelFromDevice(civ.ChannelData{Slot: 4, RxFreq: 10_136_000, Mode: byte(ModeUSBD), Filter: byte(Filter1)})
	if ch.TxFrequency != 10_136_000 {
		t.Errorf("tx = %d, want rx fallback", ch.TxFrequency)
	}
	if ch.Duplex != DuplexSimplex {
		t.Errorf("duplex = %v", ch.Duplex)
	}
}
