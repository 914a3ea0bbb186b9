package nrf24

import (
	"log/slog"
	"strconv"

	"github.com/soypat/nrf24/reg"
)

// IsTxEmpty reports whether the TX FIFO is empty.
func (d *Device) IsTxEmpty() (bool, error) {
	d.acquire()
	defer d.release()
	_, fifo, err := d.fifoStatus()
	return fifo.TxEmpty(), err
}

// IsMaxRT reads STATUS and reports whether the MAX_RT interrupt is set.
func (d *Device) IsMaxRT() (bool, error) {
	d.acquire()
	defer d.release()
	stat, err := d.status()
	return stat.MaxRetransmits(), err
}

// ClearMaxRT clears the MAX_RT interrupt. If useLastStatus is true the
// status cached by the last Status or Read call is returned instead of
// probing the chip again.
func (d *Device) ClearMaxRT(useLastStatus bool) (reg.Status, error) {
	d.acquire()
	defer d.release()
	stat := d.lastStatus
	if !useLastStatus {
		var err error
		stat, err = d.status()
		if err != nil {
			return stat, err
		}
	}
	return stat, d.writeRegister(reg.STATUS, 1<<reg.MAX_RT)
}

// ClearStatus clears the RX_DR, TX_DS and MAX_RT interrupts.
func (d *Device) ClearStatus() error {
	d.acquire()
	defer d.release()
	return d.writeRegister(reg.STATUS, reg.StatusWriteAll)
}

// ClearRx flushes the RX FIFO.
func (d *Device) ClearRx() error {
	d.acquire()
	defer d.release()
	_, _, err := d.command(reg.FLUSH_RX, 0)
	return err
}

// ClearTx flushes the TX FIFO.
func (d *Device) ClearTx() error {
	d.acquire()
	defer d.release()
	_, _, err := d.command(reg.FLUSH_TX, 0)
	return err
}

// SetChannel writes RF_CH. ch is clamped to [0,127].
func (d *Device) SetChannel(ch int) error {
	d.acquire()
	defer d.release()
	c := uint8(clamp(ch, 0, reg.MaxChannel))
	err := d.writeRegister(reg.RF_CH, c)
	if err != nil {
		return err
	}
	d.channel = c
	d.info("channel set", u8attr("ch", c))
	return nil
}

// QueueAckPacket loads data into the TX FIFO as the payload of the next
// acknowledgement sent on pipe pn. pn is clamped to [0,5] and data is
// truncated to 32 bytes. Like register values, data is given most
// significant byte first and clocked out last byte first.
func (d *Device) QueueAckPacket(pn int, data []byte) error {
	d.acquire()
	defer d.release()
	pn = clamp(pn, 0, reg.NumPipes-1)
	buf := MakeBuffer(data)
	d.debug("queue ack payload", slog.Int("pipe", pn), slog.String("data", buf.String()))
	return d.commandWrite(reg.W_ACK_PAYLOAD|reg.Cmd(pn), buf.appendTo(nil))
}

// RegisterValue is a register snapshot returned by RegisterMap.
type RegisterValue struct {
	Addr reg.Addr
	// Value is most significant byte first.
	Value []byte
}

func (r RegisterValue) String() string {
	s := "Register " + r.Addr.String() + " [" + hexstr(r.Value) + "]"
	if len(r.Value) == 1 {
		b := strconv.FormatUint(uint64(r.Value[0]), 2)
		for len(b) < 8 {
			b = "0" + b
		}
		s += " " + b
	}
	return s
}

// RegisterMap reads every documented register. Address registers are read
// with the configured address width.
func (d *Device) RegisterMap() ([]RegisterValue, error) {
	d.acquire()
	defer d.release()
	known := reg.Known()
	regs := make([]RegisterValue, 0, len(known))
	for _, addr := range known {
		v, err := d.readRegister(addr, reg.Width(addr, d.aw))
		if err != nil {
			return regs, err
		}
		regs = append(regs, RegisterValue{Addr: addr, Value: v})
	}
	return regs, nil
}
