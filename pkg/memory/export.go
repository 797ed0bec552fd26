package memory

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"slot", "name", "rx_frequency", "tx_frequency", "mode", "filter",
	"duplex", "tone_mode", "tone_frequency", "dtcs_code", "tuning_step", "group",
}

// ExportCSV writes the non-empty channels as CSV, one row per slot.
func ExportCSV(w io.Writer, channels []Channel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ch := range channels {
		if ch.Empty {
			continue
		}
		row := []string{
			strconv.Itoa(ch.Slot),
			ch.Name,
			strconv.FormatUint(ch.RxFrequency, 10),
			strconv.FormatUint(ch.TxFrequency, 10),
			ch.Mode.String(),
			ch.Filter.String(),
			ch.Duplex.String(),
			ch.ToneMode.String(),
			strconv.FormatFloat(ch.ToneFrequency, 'f', 1, 64),
			strconv.Itoa(ch.DTCSCode),
			strconv.Itoa(ch.TuningStep),
			ch.Group,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV parses channels from CSV produced by ExportCSV. Rows with an
// unparseable slot or frequency fail the whole import; nothing is applied to
// any store here, the caller decides what to do with the result.
func ImportCSV(r io.Reader) ([]Channel, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if strings.EqualFold(records[0][0], "slot") {
		start = 1
	}

	var out []Channel
	for i, row := range records[start:] {
		line := start + i + 1
		if len(row) < 6 {
			return nil, fmt.Errorf("line %d: expected at least 6 columns, got %d", line, len(row))
		}
		ch, err := channelFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, ch)
	}
	return out, nil
}

func channelFromRow(row []string) (Channel, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return Channel{}, fmt.Errorf("invalid slot %q", row[0])
	}
	if slot < 0 || slot > MaxSlot {
		return Channel{}, fmt.Errorf("slot %d out of range 0-%d", slot, MaxSlot)
	}

	rx, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 64)
	if err != nil {
		return Channel{}, fmt.Errorf("invalid rx frequency %q", row[2])
	}
	tx, err := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 64)
	if err != nil {
		return Channel{}, fmt.Errorf("invalid tx frequency %q", row[3])
	}

	mode, err := ParseMode(row[4])
	if err != nil {
		return Channel{}, err
	}
	filter, err := ParseFilter(row[5])
	if err != nil {
		return Channel{}, err
	}

	ch := Channel{
		Slot:        slot,
		Name:        strings.TrimSpace(row[1]),
		RxFrequency: rx,
		TxFrequency: tx,
		Mode:        mode,
		Filter:      filter,
	}
	if len(row) > 6 && strings.EqualFold(strings.TrimSpace(row[6]), "SPLIT") {
		ch.Duplex = DuplexSplit
	}
	if len(row) > 7 {
		switch strings.ToUpper(strings.TrimSpace(row[7])) {
		case "TONE":
			ch.ToneMode = ToneEnc
		case "TSQL":
			ch.ToneMode = ToneTSQL
		case "DTCS":
			ch.ToneMode = ToneDTCS
		}
	}
	if len(row) > 8 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[8]), 64); err == nil {
			ch.ToneFrequency = v
		}
	}
	if len(row) > 9 {
		if v, err := strconv.Atoi(strings.TrimSpace(row[9])); err == nil {
			ch.DTCSCode = v
		}
	}
	if len(row) > 10 {
		if v, err := strconv.Atoi(strings.TrimSpace(row[10])); err == nil {
			ch.TuningStep = v
		}
	}
	if len(row) > 11 {
		ch.Group = strings.TrimSpace(row[11])
	}
	return ch, nil
}

// exportDocument is the JSON container holding both channels and groups so a
// round trip preserves the full layout, not just the slot contents.
type exportDocument struct {
	Channels []jsonChannel `json:"channels"`
	Groups   []Group       `json:"groups"`
}

// jsonChannel is the wire form of Channel with the byte-enum fields rendered
// as their display names.
type jsonChannel struct {
	Slot          int     `json:"slot"`
	Name          string  `json:"name"`
	RxFrequency   uint64  `json:"rx_frequency"`
	TxFrequency   uint64  `json:"tx_frequency"`
	Mode          string  `json:"mode"`
	Filter        string  `json:"filter"`
	Duplex        string  `json:"duplex"`
	ToneMode      string  `json:"tone_mode"`
	ToneFrequency float64 `json:"tone_frequency"`
	DTCSCode      int     `json:"dtcs_code"`
	TuningStep    int     `json:"tuning_step"`
	Group         string  `json:"group,omitempty"`
}

func toJSONChannel(ch Channel) jsonChannel {
	return jsonChannel{
		Slot:          ch.Slot,
		Name:          ch.Name,
		RxFrequency:   ch.RxFrequency,
		TxFrequency:   ch.TxFrequency,
		Mode:          ch.Mode.String(),
		Filter:        ch.Filter.String(),
		Duplex:        ch.Duplex.String(),
		ToneMode:      ch.ToneMode.String(),
		ToneFrequency: ch.ToneFrequency,
		DTCSCode:      ch.DTCSCode,
		TuningStep:    ch.TuningStep,
		Group:         ch.Group,
	}
}

func fromJSONChannel(jc jsonChannel) (Channel, error) {
	if jc.Slot < 0 || jc.Slot > MaxSlot {
		return Channel{}, fmt.Errorf("slot %d out of range 0-%d", jc.Slot, MaxSlot)
	}
	mode, err := ParseMode(jc.Mode)
	if err != nil {
		return Channel{}, err
	}
	filter, err := ParseFilter(jc.Filter)
	if err != nil {
		return Channel{}, err
	}
	ch := Channel{
		Slot:          jc.Slot,
		Name:          jc.Name,
		RxFrequency:   jc.RxFrequency,
		TxFrequency:   jc.TxFrequency,
		Mode:          mode,
		Filter:        filter,
		ToneFrequency: jc.ToneFrequency,
		DTCSCode:      jc.DTCSCode,
		TuningStep:    jc.TuningStep,
		Group:         jc.Group,
	}
	if strings.EqualFold(jc.Duplex, "SPLIT") {
		ch.Duplex = DuplexSplit
	}
	switch strings.ToUpper(jc.ToneMode) {
	case "TONE":
		ch.ToneMode = ToneEnc
	case "TSQL":
		ch.ToneMode = ToneTSQL
	case "DTCS":
		ch.ToneMode = ToneDTCS
	}
	return ch, nil
}

// ExportJSON writes the non-empty channels and the group declarations as an
// indented JSON document.
func ExportJSON(w io.Writer, channels []Channel, groups []Group) error {
	doc := exportDocument{Groups: groups}
	for _, ch := range channels {
		if ch.Empty {
			continue
		}
		doc.Channels = append(doc.Channels, toJSONChannel(ch))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ImportJSON parses a document produced by ExportJSON.
func ImportJSON(r io.Reader) ([]Channel, []Group, error) {
	var doc exportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	channels := make([]Channel, 0, len(doc.Channels))
	for i, jc := range doc.Channels {
		ch, err := fromJSONChannel(jc)
		if err != nil {
			return nil, nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels = append(channels, ch)
	}
	return channels, doc.Groups, nil
}
