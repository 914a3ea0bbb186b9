package nrfsim

import "github.com/soypat/nrf24/reg"

// Receive queues payload as received on pipe pn and asserts RX_DR.
// payload is given in the order R_RX_PAYLOAD clocks it out. It reports
// false if the RX FIFO is full and the packet was dropped.
func (c *Chip) Receive(pn int, payload ...byte) bool {
	return c.ReceiveWidth(pn, len(payload), payload...)
}

// ReceiveWidth is like Receive but R_RX_PL_WID reports width instead of
// the payload length. Widths over 32 simulate a corrupt FIFO.
func (c *Chip) ReceiveWidth(pn, width int, payload ...byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rx) == reg.FIFODepth {
		return false
	}
	c.rx = append(c.rx, frame{pipe: pn, width: width, wire: append([]byte(nil), payload...)})
	c.irq |= 1 << reg.RX_DR
	return true
}

// AssertIRQ sets interrupt flags in STATUS without touching the FIFOs.
func (c *Chip) AssertIRQ(flags reg.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.irq |= flags & reg.ClearAllIRQ
}

// FailAt makes the nth transaction from now fail with ErrBus.
func (c *Chip) FailAt(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAt = len(c.xfers) + n
}

// Reg returns the register contents in the order they were clocked in,
// least significant byte first.
func (c *Chip) Reg(a reg.Addr) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.readReg(a)...)
}

// Status returns the current STATUS value.
func (c *Chip) Status() reg.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// RxLen returns the number of packets in the RX FIFO.
func (c *Chip) RxLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rx)
}

// TxFIFO returns the transactions loaded into the TX FIFO, command word first.
func (c *Chip) TxFIFO() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.tx))
	for i := range c.tx {
		out[i] = append([]byte(nil), c.tx[i]...)
	}
	return out
}

// CE returns the chip enable line level.
func (c *Chip) CE() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ce
}

// CELog returns every level CE was driven to.
func (c *Chip) CELog() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.ceLog...)
}

// Transfers returns the recorded transactions.
func (c *Chip) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transfer(nil), c.xfers...)
}

// ClearHistory drops recorded transactions and CE levels.
func (c *Chip) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.xfers = nil
	c.ceLog = nil
}

// Writes returns the data of every W_REGISTER transaction to a, in order,
// as clocked in.
func (c *Chip) Writes(a reg.Addr) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var w [][]byte
	for _, x := range c.xfers {
		if x.Cmd() == reg.W_REGISTER|reg.Cmd(a) {
			w = append(w, x.Out[1:])
		}
	}
	return w
}

// Issued reports how many recorded transactions started with cmd.
func (c *Chip) Issued(cmd reg.Cmd) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, x := range c.xfers {
		if x.Cmd() == cmd {
			n++
		}
	}
	return n
}
