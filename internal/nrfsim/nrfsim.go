// Package nrfsim simulates the SPI side of an nRF24L01(+) receiver. Chip
// implements nrf24.Transport and records every transaction so tests can
// inspect exactly what was clocked over the bus.
package nrfsim

import (
	"errors"
	"sync"

	"github.com/soypat/nrf24/reg"
)

// Transfer is a recorded SPI transaction.
type Transfer struct {
	Out []byte // Bytes clocked out by the host, command word first.
	In  []byte // Bytes returned to the host, STATUS first.
}

// Cmd returns the command word of the transaction.
func (t Transfer) Cmd() reg.Cmd { return reg.Cmd(t.Out[0]) }

type frame struct {
	pipe  int
	width int    // Reported by R_RX_PL_WID.
	wire  []byte // Clocked out by R_RX_PAYLOAD.
}

// Chip is a simulated nRF24L01+. The zero value is not usable, use New.
type Chip struct {
	mu   sync.Mutex
	regs [reg.FEATURE + 1][]byte
	irq  reg.Status
	rx   []frame
	tx   [][]byte
	ce   bool

	xfers  []Transfer
	ceLog  []bool
	failAt int // Fail the failAt'th transaction (1 based). 0 disables.
}

// ErrBus is returned by Transfer when a failure was scheduled with FailAt.
var ErrBus = errors.New("nrfsim: bus failure")

// New returns a Chip holding the register reset values.
func New() *Chip {
	c := &Chip{}
	c.Reset()
	return c
}

// Reset restores register reset values and clears FIFOs, interrupts and
// recorded history.
func (c *Chip) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.regs {
		c.regs[i] = []byte{0}
	}
	set := func(a reg.Addr, v ...byte) { c.regs[a] = v }
	set(reg.CONFIG, 0x08)
	set(reg.EN_AA, 0x3f)
	set(reg.EN_RXADDR, 0x03)
	set(reg.SETUP_AW, 0x03)
	set(reg.SETUP_RETR, 0x03)
	set(reg.RF_CH, 0x02)
	set(reg.RF_SETUP, 0x0e)
	set(reg.RX_ADDR_P0, 0xe7, 0xe7, 0xe7, 0xe7, 0xe7)
	set(reg.RX_ADDR_P1, 0xc2, 0xc2, 0xc2, 0xc2, 0xc2)
	set(reg.RX_ADDR_P2, 0xc3)
	set(reg.RX_ADDR_P3, 0xc4)
	set(reg.RX_ADDR_P4, 0xc5)
	set(reg.RX_ADDR_P5, 0xc6)
	set(reg.TX_ADDR, 0xe7, 0xe7, 0xe7, 0xe7, 0xe7)
	c.irq = 0
	c.rx = nil
	c.tx = nil
	c.ce = false
	c.xfers = nil
	c.ceLog = nil
	c.failAt = 0
}

// Transfer implements nrf24.Transport.
func (c *Chip) Transfer(w []byte, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(w) == 0 {
		return nil, errors.New("nrfsim: empty transaction")
	}
	if c.failAt > 0 && len(c.xfers)+1 == c.failAt {
		c.failAt = 0
		return nil, ErrBus
	}
	total := max(len(w), n)
	in := make([]byte, total)
	in[0] = byte(c.status())
	c.execute(w, in[1:])
	c.xfers = append(c.xfers, Transfer{
		Out: append([]byte(nil), w...),
		In:  append([]byte(nil), in[:n]...),
	})
	return in[:n], nil
}

// SetCE implements nrf24.Transport.
func (c *Chip) SetCE(high bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ce = high
	c.ceLog = append(c.ceLog, high)
	return nil
}

func (c *Chip) execute(w, in []byte) {
	cmd := reg.Cmd(w[0])
	data := w[1:]
	switch {
	case cmd&0xe0 == reg.R_REGISTER:
		copy(in, c.readReg(reg.Addr(cmd&reg.AddrMask)))
	case cmd&0xe0 == reg.W_REGISTER:
		c.writeReg(reg.Addr(cmd&reg.AddrMask), data)
	case cmd == reg.R_RX_PL_WID:
		if len(c.rx) > 0 && len(in) > 0 {
			in[0] = byte(c.rx[0].width)
		}
	case cmd == reg.R_RX_PAYLOAD:
		if len(c.rx) > 0 {
			copy(in, c.rx[0].wire)
			c.rx = c.rx[1:]
		}
	case cmd == reg.FLUSH_RX:
		c.rx = nil
	case cmd == reg.FLUSH_TX:
		c.tx = nil
	case cmd == reg.W_TX_PAYLOAD, cmd == reg.W_TX_PAYLOAD_NOACK,
		cmd&^7 == reg.W_ACK_PAYLOAD && cmd&7 < reg.NumPipes:
		if len(c.tx) < reg.FIFODepth {
			c.tx = append(c.tx, append([]byte{byte(cmd)}, data...))
		}
	}
}

func (c *Chip) readReg(a reg.Addr) []byte {
	switch a {
	case reg.STATUS:
		return []byte{byte(c.status())}
	case reg.FIFO_STATUS:
		return []byte{byte(c.fifo())}
	}
	if int(a) >= len(c.regs) {
		return nil
	}
	return c.regs[a]
}

func (c *Chip) writeReg(a reg.Addr, data []byte) {
	if len(data) == 0 {
		return
	}
	switch a {
	case reg.STATUS:
		// Interrupt flags are cleared by writing 1.
		c.irq &^= reg.Status(data[0]) & reg.ClearAllIRQ
		return
	case reg.FIFO_STATUS, reg.OBSERVE_TX, reg.RPD:
		return // Read only.
	}
	if int(a) >= len(c.regs) {
		return
	}
	if len(data) > reg.MaxAddressWidth {
		data = data[:reg.MaxAddressWidth]
	}
	if !a.IsAddress() {
		data = data[:1]
	}
	c.regs[a] = append([]byte(nil), data...)
}

func (c *Chip) status() reg.Status {
	pipe := reg.Status(reg.RxFIFOEmpty)
	if len(c.rx) > 0 {
		pipe = reg.Status(c.rx[0].pipe)
	}
	s := c.irq | pipe<<reg.RX_P_NO
	if len(c.tx) == reg.FIFODepth {
		s |= 1 << reg.TX_FULL
	}
	return s
}

func (c *Chip) fifo() reg.FIFO {
	var f reg.FIFO
	switch len(c.rx) {
	case 0:
		f |= 1 << reg.RX_EMPTY
	case reg.FIFODepth:
		f |= 1 << reg.RX_FULL
	}
	switch len(c.tx) {
	case 0:
		f |= 1 << reg.TX_EMPTY
	case reg.FIFODepth:
		f |= 1 << reg.FIFO_TXFULL
	}
	return f
}
