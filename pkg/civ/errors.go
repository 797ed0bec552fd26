package civ

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when no valid reply frame arrives inside the
// configured wait window. It is an operation failure, not a link failure;
// retrying is left to the caller.
var ErrTimeout = errors.New("civ: no reply from radio before timeout")

// ErrMalformedFrame is returned by ParseFrame for structurally invalid
// buffers. The transport reader swallows these silently since they may be
// transient echo noise.
var ErrMalformedFrame = errors.New("civ: malformed frame")

// NAKError reports that the radio explicitly rejected a command. For reads
// of a memory slot a NAK means "slot empty" and is not surfaced as an error.
type NAKError struct {
	Operation string
}

func (e *NAKError) Error() string {
	return fmt.Sprintf("civ: radio rejected %s", e.Operation)
}

// IsNAK reports whether err is a device negative acknowledgement.
func IsNAK(err error) bool {
	var nak *NAKError
	return errors.As(err, &nak)
}

// StepError reports which step of a multi-step transaction failed. Earlier
// steps are not rolled back; the caller decides what to do with the partial
// state.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("civ: %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
