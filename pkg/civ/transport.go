package civ

import (
	"bytes"
	"io"
	"time"
)

// The serial link is half duplex and echoes every transmitted byte back
// before the radio's genuine reply arrives. readReply accumulates bytes and
// disambiguates echo from reply by the source address byte: the echo of our
// own command carries the controller address at offset 3, a genuine reply
// carries the radio address.
//
// On each terminator sighting the buffer is scanned from the start for a
// double preamble followed by the radio's source address. If none is found
// the bytes up to and including the last complete terminator are dropped
// (that is the echo, or noise) and accumulation continues until the
// wall-clock timeout.
func readReply(link io.Reader, radioAddr byte, timeout, poll time.Duration) (Frame, error) {
	var buf []byte
	chunk := make([]byte, 256)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		n, err := link.Read(chunk)
		if err != nil && err != io.EOF {
			return Frame{}, err
		}
		if n == 0 {
			time.Sleep(poll)
			continue
		}
		buf = append(buf, chunk[:n]...)

		if !bytes.Contains(chunk[:n], []byte{Terminator}) || len(buf) < 6 {
			continue
		}
		if f, ok := scanReply(buf, radioAddr); ok {
			return f, nil
		}
		// No genuine reply yet: drop everything through the last complete
		// frame boundary, keeping any partial trailing bytes.
		if last := bytes.LastIndexByte(buf, Terminator); last >= 0 {
			buf = append(buf[:0], buf[last+1:]...)
		}
	}
	return Frame{}, ErrTimeout
}

// scanReply looks for the first complete frame whose source address matches
// the radio. Malformed candidate windows are skipped silently.
func scanReply(buf []byte, radioAddr byte) (Frame, bool) {
	for i := 0; i+5 < len(buf); i++ {
		if buf[i] != Preamble || buf[i+1] != Preamble {
			continue
		}
		if buf[i+3] != radioAddr {
			continue
		}
		end := bytes.IndexByte(buf[i:], Terminator)
		if end < 0 {
			return Frame{}, false
		}
		f, err := ParseFrame(buf[i : i+end+1])
		if err != nil {
			continue
		}
		return f, true
	}
	return Frame{}, false
}
