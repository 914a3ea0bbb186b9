//go:build !tinygo

package nrf24

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIConfig selects the host SPI port and chip enable pin of a
// transceiver attached to a Linux single board computer.
type SPIConfig struct {
	// Port is the SPI port name, i.e. "/dev/spidev0.0" or "SPI0.0".
	// Empty selects the first available port.
	Port string
	// CE is the chip enable GPIO name, i.e. "GPIO25".
	CE string
	// Freq is the SCK frequency. Zero selects 1MHz.
	Freq physic.Frequency
}

// SPIBus is a Transport over a host SPI port using periph.io drivers.
type SPIBus struct {
	port spi.PortCloser
	conn spi.Conn
	ce   gpio.PinOut
	w, r []byte
}

var _ Transport = (*SPIBus)(nil)

// OpenSPI initializes host drivers and opens the SPI port and CE pin
// described by cfg. The port is connected in mode 0 with 8 bit words.
func OpenSPI(cfg SPIConfig) (*SPIBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	if cfg.Freq == 0 {
		cfg.Freq = physic.MegaHertz
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(cfg.Freq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, err
	}
	ce := gpioreg.ByName(cfg.CE)
	if ce == nil {
		port.Close()
		return nil, errors.New("nrf24: CE pin " + cfg.CE + " not found")
	}
	if err = ce.Out(gpio.Low); err != nil {
		port.Close()
		return nil, err
	}
	return &SPIBus{
		port: port,
		conn: conn,
		ce:   ce,
		w:    make([]byte, 1+32),
		r:    make([]byte, 1+32),
	}, nil
}

// Transfer implements Transport. The transaction is max(len(w),n) bytes
// long, w is padded with zeros.
func (b *SPIBus) Transfer(w []byte, n int) ([]byte, error) {
	size := max(len(w), n)
	if size > len(b.w) {
		b.w = make([]byte, size)
		b.r = make([]byte, size)
	}
	wbuf := b.w[:size]
	clear(wbuf[copy(wbuf, w):])
	err := b.conn.Tx(wbuf, b.r[:size])
	if err != nil {
		return nil, err
	}
	return b.r[:n], nil
}

// SetCE implements Transport.
func (b *SPIBus) SetCE(high bool) error {
	return b.ce.Out(gpio.Level(high))
}

// Close drives CE low and releases the SPI port.
func (b *SPIBus) Close() error {
	errCE := b.ce.Out(gpio.Low)
	return errors.Join(errCE, b.port.Close())
}
