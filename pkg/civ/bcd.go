package civ

// EncodeFrequency converts a frequency in Hz to the 5-byte BCD wire format.
// The IC-7300 uses 1 Hz resolution; each byte packs two decimal digits with
// the low nibble first, least significant decade pair leading.
// Example: 7,200,000 Hz -> 00 00 20 07 00
func EncodeFrequency(hz uint64) [5]byte {
	var bcd [5]byte
	for i := 0; i < 5; i++ {
		bcd[i] = byte(hz%10) | byte(hz/10%10)<<4
		hz /= 100
	}
	return bcd
}

// DecodeFrequency converts the 5-byte BCD wire format back to Hz.
// Extra trailing bytes are ignored so callers can pass a full payload slice.
func DecodeFrequency(bcd []byte) uint64 {
	var hz, mul uint64 = 0, 1
	n := len(bcd)
	if n > 5 {
		n = 5
	}
	for i := 0; i < n; i++ {
		hz += uint64(bcd[i]&0x0F) * mul
		mul *= 10
		hz += uint64(bcd[i]>>4&0x0F) * mul
		mul *= 10
	}
	return hz
}

// encodeSlot converts a memory slot number (0-99) to its 1-byte BCD form.
func encodeSlot(slot int) byte {
	return byte(slot/10)<<4 | byte(slot%10)
}

// decodeSlot converts a 1-byte BCD slot number back to an integer.
func decodeSlot(b byte) int {
	return int(b>>4&0x0F)*10 + int(b&0x0F)
}
