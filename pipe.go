package nrf24

import (
	"strconv"

	"github.com/soypat/nrf24/reg"
)

// Pipe describes the configuration of one of the six RX data pipes.
// The zero value is a disabled pipe. Pipe values are immutable; use
// FixedPipe or DynamicPipe and WithAddress to build one.
type Pipe struct {
	enabled bool
	// size is the fixed payload width, 0 means dynamic payload length.
	size uint8
	addr Buffer
}

// FixedPipe returns an enabled pipe receiving payloads of size bytes.
// size is clamped to [1,32] when programmed. A size of zero or less
// selects dynamic payload length, same as DynamicPipe.
func FixedPipe(size int) Pipe {
	return Pipe{enabled: true, size: uint8(clamp(size, 0, reg.MaxPayloadSize))}
}

// DynamicPipe returns an enabled pipe whose payload width is reported by
// the chip for every received packet.
func DynamicPipe() Pipe {
	return Pipe{enabled: true}
}

// WithAddress returns a copy of p listening on addr, given most
// significant byte first. Pipes without an address keep the chip's
// reset address. Bytes past the 5th are dropped.
func (p Pipe) WithAddress(addr ...byte) Pipe {
	p.addr = MakeBuffer(addr).Truncate(reg.MaxAddressWidth)
	return p
}

// Enabled reports whether the pipe is configured.
func (p Pipe) Enabled() bool { return p.enabled }

// Dynamic reports whether the pipe uses dynamic payload length.
func (p Pipe) Dynamic() bool { return p.enabled && p.size == 0 }

// Size returns the fixed payload width or 0 for dynamic pipes.
func (p Pipe) Size() int { return int(p.size) }

// Address returns the explicit pipe address and true, or false if the
// pipe keeps the chip's default address.
func (p Pipe) Address() ([]byte, bool) {
	if p.addr.Len() == 0 {
		return nil, false
	}
	return p.addr.Bytes(), true
}

func (p Pipe) String() string {
	if !p.enabled {
		return "Pipe(disabled)"
	}
	s := "Pipe(size="
	if p.size == 0 {
		s += "dyn"
	} else {
		s += strconv.Itoa(int(p.size))
	}
	if p.addr.Len() > 0 {
		s += " addr=" + p.addr.String()
	}
	return s + ")"
}

// PipeMasks holds the per-pipe bitmasks computed from the configured pipes.
type PipeMasks struct {
	Enabled reg.Pipes // Pipes with a configuration, intended for EN_RXADDR.
	AutoAck reg.Pipes // Intended for EN_AA.
	Dynamic reg.Pipes // Written to DYNPD.
}

// computeMasks accumulates the pipe bitmasks of pipes.
func computeMasks(pipes []Pipe) (m PipeMasks) {
	for pn, p := range pipes {
		if !p.enabled {
			continue
		}
		m.Enabled |= 1 << pn
		m.AutoAck |= 1 << pn
		if p.Dynamic() {
			m.Dynamic |= 1 << pn
		}
	}
	return m
}
