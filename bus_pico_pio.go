//go:build pico

package nrf24

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"github.com/soypat/nrf24/reg"
)

// PicoPins are the RP2040 pins wired to the transceiver.
type PicoPins struct {
	SCK, SDO, SDI machine.Pin
	CSN, CE       machine.Pin
}

// DefaultPicoPins wires the transceiver to GPIO2 through GPIO6.
var DefaultPicoPins = PicoPins{
	SCK: machine.GPIO2,
	SDO: machine.GPIO3,
	SDI: machine.GPIO4,
	CSN: machine.GPIO5,
	CE:  machine.GPIO6,
}

// PIOBus is a Transport running SPI on an RP2040 PIO state machine.
type PIOBus struct {
	spi  *piolib.SPI
	csn  machine.Pin
	ce   machine.Pin
	w, r [1 + reg.MaxPayloadSize]byte
}

var _ Transport = (*PIOBus)(nil)

// NewPIOBus claims a PIO0 state machine and configures pins for SPI mode 0.
func NewPIOBus(pins PicoPins, freq uint32) (*PIOBus, error) {
	pins.CSN.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pins.CSN.High()
	pins.CE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pins.CE.Low()
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	spi, err := piolib.NewSPI(sm, machine.SPIConfig{
		Frequency: freq,
		SCK:       pins.SCK,
		SDO:       pins.SDO,
		SDI:       pins.SDI,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return &PIOBus{spi: spi, csn: pins.CSN, ce: pins.CE}, nil
}

// NewPicoDevice configures a transceiver wired to DefaultPicoPins.
func NewPicoDevice(cfg Config) (*Device, error) {
	bus, err := NewPIOBus(DefaultPicoPins, 8_000_000)
	if err != nil {
		return nil, err
	}
	return New(bus, cfg)
}

// Transfer implements Transport. Transactions are limited to 33 bytes.
func (b *PIOBus) Transfer(w []byte, n int) ([]byte, error) {
	size := min(max(len(w), n), len(b.w))
	wbuf := b.w[:size]
	clear(wbuf[copy(wbuf, w):])
	b.csEnable(true)
	err := b.spi.Tx(wbuf, b.r[:size])
	b.csEnable(false)
	if err != nil {
		return nil, err
	}
	return b.r[:min(n, size)], nil
}

// SetCE implements Transport.
func (b *PIOBus) SetCE(high bool) error {
	b.ce.Set(high)
	return nil
}

func (b *PIOBus) csEnable(enable bool) {
	b.csn.Set(!enable)
}
