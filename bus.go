package nrf24

import (
	"log/slog"

	"github.com/soypat/nrf24/reg"
)

// ReadRegister reads size bytes from register addr. Multi-byte values
// are returned most significant byte first.
func (d *Device) ReadRegister(addr reg.Addr, size int) ([]byte, error) {
	d.acquire()
	defer d.release()
	return d.readRegister(addr, size)
}

// WriteRegister writes data, given most significant byte first, to
// register addr.
func (d *Device) WriteRegister(addr reg.Addr, data ...byte) error {
	d.acquire()
	defer d.release()
	return d.writeRegister(addr, data...)
}

// Command sends the single byte command cmd and returns the n bytes
// clocked in after the status byte, in reverse order.
func (d *Device) Command(cmd reg.Cmd, n int) ([]byte, error) {
	d.acquire()
	defer d.release()
	_, data, err := d.command(cmd, n)
	return data, err
}

// Status sends a NOP and returns the STATUS register. The value is
// retained and available from LastStatus.
func (d *Device) Status() (reg.Status, error) {
	d.acquire()
	defer d.release()
	return d.status()
}

// LastStatus returns the STATUS value read by the last call to Status
// or Read. It does not touch the bus.
func (d *Device) LastStatus() reg.Status {
	d.acquire()
	defer d.release()
	return d.lastStatus
}

// FIFOStatus reads the FIFO_STATUS register.
func (d *Device) FIFOStatus() (reg.FIFO, error) {
	d.acquire()
	defer d.release()
	_, fifo, err := d.fifoStatus()
	return fifo, err
}

func (d *Device) readRegister(addr reg.Addr, size int) ([]byte, error) {
	_, data, err := d.command(reg.R_REGISTER|reg.Cmd(addr&reg.AddrMask), size)
	return data, err
}

func (d *Device) writeRegister(addr reg.Addr, data ...byte) error {
	return d.commandWrite(reg.W_REGISTER|reg.Cmd(addr&reg.AddrMask), data)
}

// command exchanges 1+n bytes starting with cmd. The returned data
// excludes the status byte and is in reverse order of reception.
func (d *Device) command(cmd reg.Cmd, n int) (reg.Status, []byte, error) {
	d.rwBuf[0] = byte(cmd)
	got, err := d.exchange(d.rwBuf[:1], 1+n)
	if err != nil {
		return 0, nil, err
	}
	stat := reg.Status(got[0])
	if n <= 0 {
		return stat, nil, nil
	}
	return stat, reversed(got[1 : 1+n]), nil
}

// commandWrite clocks out cmd followed by data in reverse order.
func (d *Device) commandWrite(cmd reg.Cmd, data []byte) error {
	w := append(d.rwBuf[:0], byte(cmd))
	for i := len(data) - 1; i >= 0; i-- {
		w = append(w, data[i])
	}
	_, err := d.exchange(w, 0)
	return err
}

func (d *Device) status() (reg.Status, error) {
	stat, _, err := d.command(reg.NOP, 0)
	if err != nil {
		return 0, err
	}
	d.lastStatus = stat
	return stat, nil
}

// fifoStatus reads FIFO_STATUS and also returns the STATUS byte clocked
// in during the same transaction.
func (d *Device) fifoStatus() (reg.Status, reg.FIFO, error) {
	stat, data, err := d.command(reg.R_REGISTER|reg.Cmd(reg.FIFO_STATUS), 1)
	if err != nil {
		return 0, 0, err
	}
	return stat, reg.FIFO(data[0]), nil
}

func (d *Device) exchange(w []byte, n int) ([]byte, error) {
	got, err := d.bus.Transfer(w, n)
	if err != nil {
		return nil, err
	}
	if len(got) < n {
		return nil, ErrShortTransfer
	}
	if d._traceenabled {
		d.trace("bus:xfer", slog.String("cmd", reg.Cmd(w[0]).String()), hexattr("w", w[1:]), hexattr("r", got))
	}
	return got, nil
}
