package memory

import (
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/civ"
)

// DeviceData converts a channel into the wire-level form the transaction
// engine consumes. Simplex channels transmit on the receive frequency, so a
// zero TX frequency falls back to RX.
func (c Channel) DeviceData() civ.ChannelData {
	tx := c.TxFrequency
	if tx == 0 {
		tx = c.RxFrequency
	}
	return civ.ChannelData{
		Slot:   c.Slot,
		Name:   c.Name,
		RxFreq: c.RxFrequency,
		TxFreq: tx,
		Mode:   byte(c.Mode),
		Filter: byte(c.Filter),
		Split:  c.Duplex == DuplexSplit,
	}
}

// ChannelFromDevice converts a wire-level record read from the radio into a
// channel. Fields the packed record does not carry (tone setup, tuning step)
// come back as defaults.
func ChannelFromDevice(data civ.ChannelData) Channel {
	ch := Channel{
		Slot:        data.Slot,
		Name:        data.Name,
		RxFrequency: data.RxFreq,
		TxFrequency: data.TxFreq,
		Mode:        Mode(data.Mode),
		Filter:      Filter(data.Filter),
	}
	if data.Split {
		ch.Duplex = DuplexSplit
	}
	if ch.TxFrequency == 0 {
		ch.TxFrequency = ch.RxFrequency
	}
	if data.TuningHz > 0 {
		ch.TuningStep = data.TuningHz
	}
	return ch
}
