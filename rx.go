package nrf24

import (
	"log/slog"

	"github.com/soypat/nrf24/reg"
)

// Packet is a payload drained from the RX FIFO.
type Packet struct {
	// Pipe is the data pipe the payload was received on.
	Pipe int
	// Payload bytes, in reverse order of reception.
	Payload Buffer
}

// Rx is the outcome of a Read call.
type Rx struct {
	// Packets drained in FIFO order.
	Packets []Packet
	// Anomaly is set when draining stopped early because the chip reported
	// an inconsistent state. Packets drained before the anomaly are kept.
	// The anomaly wraps ErrNoPipeIndex or ErrPipeRange. A pipe range anomaly
	// blocks the RX FIFO until ClearRx and ClearStatus are called.
	Anomaly error
}

// Empty reports whether no packet was drained and no anomaly occurred.
func (rx Rx) Empty() bool { return len(rx.Packets) == 0 && rx.Anomaly == nil }

// Read drains the RX FIFO without blocking. If RX_DR is not set an empty Rx
// and nil error are returned.
//
// Read returns ErrNoPipes if no pipes are configured and ErrCorruptFIFO if
// the chip reported a payload width over 32 bytes, in which case the RX
// FIFO is flushed and already drained packets are discarded. Transport
// errors are returned as is along with the packets drained before the
// failure. Other inconsistencies end the drain and are reported in
// Rx.Anomaly with a nil error.
//
// A PipeRangeError anomaly leaves the offending payload at the head of the
// RX FIFO. Every later packet stays behind it and each Read that sees RX_DR
// reports the same anomaly until the caller discards the FIFO with ClearRx
// followed by ClearStatus.
func (d *Device) Read() (rx Rx, err error) {
	d.acquire()
	defer d.release()
	if len(d.pipes) == 0 {
		return rx, ErrNoPipes
	}
	defer func() {
		if err != nil && err != ErrCorruptFIFO {
			d.logerr("rx:drain failed", slog.String("err", err.Error()), slog.Int("drained", len(rx.Packets)))
		}
	}()
	stat, err := d.status()
	if err != nil {
		return rx, err
	}
	if !stat.DataReady() {
		return rx, nil
	}
	// Datasheet procedure: read payload, clear RX_DR,
	// read FIFO_STATUS and repeat while the RX FIFO has data.
	for {
		pn := stat.RxPipe()
		if pn < 0 {
			d.warn("rx:data ready without pipe, clearing status", slog.String("status", stat.String()))
			err = d.writeRegister(reg.STATUS, reg.ClearAllIRQ)
			if err != nil {
				return rx, err
			}
			rx.Anomaly = ErrNoPipeIndex
			return rx, nil
		}
		if pn >= len(d.pipes) || !d.pipes[pn].enabled {
			rx.Anomaly = &PipeRangeError{Pipe: pn, NumPipes: len(d.pipes), Disabled: pn < len(d.pipes)}
			d.warn("rx:anomaly", slog.String("err", rx.Anomaly.Error()))
			return rx, nil
		}

		size := int(d.pipes[pn].size)
		if size == 0 {
			_, width, err := d.command(reg.R_RX_PL_WID, 1)
			if err != nil {
				return rx, err
			}
			size = int(width[0])
		}
		if size > reg.MaxPayloadSize {
			d.logerr("rx:corrupt data in FIFO, flushing", slog.Int("width", size), slog.Int("pipe", pn))
			_, _, err = d.command(reg.FLUSH_RX, 0)
			if err != nil {
				return Rx{}, err
			}
			return Rx{}, ErrCorruptFIFO
		}

		_, payload, err := d.command(reg.R_RX_PAYLOAD, size)
		if err != nil {
			return rx, err
		}
		rx.Packets = append(rx.Packets, Packet{Pipe: pn, Payload: MakeBuffer(payload)})
		d.debug("rx:packet", slog.Int("pipe", pn), hexattr("payload", payload))

		err = d.writeRegister(reg.STATUS, reg.StatusWriteAll)
		if err != nil {
			return rx, err
		}
		var fifo reg.FIFO
		stat, fifo, err = d.fifoStatus()
		if err != nil {
			return rx, err
		}
		if fifo.RxEmpty() {
			return rx, nil
		}
	}
}
