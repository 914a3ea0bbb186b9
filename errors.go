package nrf24

import (
	"errors"
	"strconv"
)

var (
	// ErrNoPipes is returned by Read when the Device was configured without pipes.
	ErrNoPipes = errors.New("nrf24: no pipes configured")
	// ErrNoPipeIndex reports the chip asserted RX_DR with an empty RX_P_NO field.
	ErrNoPipeIndex = errors.New("nrf24: data ready without pipe index")
	// ErrPipeRange reports a packet received on a pipe missing from the configuration.
	ErrPipeRange = errors.New("nrf24: pipe not configured")
	// ErrCorruptFIFO reports a payload width over 32 bytes. The RX FIFO is
	// flushed before it is returned.
	ErrCorruptFIFO = errors.New("nrf24: corrupt RX FIFO")
	// ErrShortTransfer reports a Transport returned fewer bytes than requested.
	ErrShortTransfer = errors.New("nrf24: short transfer")
)

// PipeRangeError is the anomaly reported when the chip delivers a packet
// on a pipe that has no configuration.
type PipeRangeError struct {
	Pipe     int
	NumPipes int
	// Disabled is set when the pipe index is within the configured list
	// but the slot is disabled.
	Disabled bool
}

func (e *PipeRangeError) Error() string {
	if e.Disabled {
		return "nrf24: packet on disabled pipe " + strconv.Itoa(e.Pipe)
	}
	return "nrf24: packet on pipe " + strconv.Itoa(e.Pipe) + " with " + strconv.Itoa(e.NumPipes) + " pipes configured"
}

func (e *PipeRangeError) Unwrap() error { return ErrPipeRange }
