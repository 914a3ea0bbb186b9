package nrf24

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soypat/nrf24/reg"
)

// Speed selects the over the air data rate.
type Speed uint8

const (
	Speed250kbps Speed = iota // RF_DR_LOW set. Also selected by any unknown Speed.
	Speed1Mbps                // Neither RF_DR_LOW nor RF_DR_HIGH set.
	Speed2Mbps                // RF_DR_HIGH set.
)

func (s Speed) String() string {
	switch s {
	case Speed1Mbps:
		return "1Mbps"
	case Speed2Mbps:
		return "2Mbps"
	}
	return "250kbps"
}

// rfBits returns the RF_SETUP data rate bits.
func (s Speed) rfBits() uint8 {
	switch s {
	case Speed2Mbps:
		return 1 << reg.RF_DR_HIGH
	case Speed1Mbps:
		return 0
	}
	return 1 << reg.RF_DR_LOW
}

// Config is the radio configuration programmed by New.
type Config struct {
	// AddressWidth is the pipe address width in bytes, clamped to [3,5].
	AddressWidth int
	// Pipes configures RX data pipes 0 to 5 in order. Entries past the
	// sixth are ignored. Zero value entries leave the pipe disabled.
	Pipes []Pipe
	// Channel is the RF channel, clamped to [0,127].
	Channel int
	Speed   Speed
	// CRCBytes is the CRC length. 0 disables CRC, 2 or more selects 2 bytes.
	CRCBytes int
	// StrictPipeMask programs EN_RXADDR and EN_AA with exactly the
	// configured pipes. When false EN_RXADDR is always 0x03 (pipes 0 and 1)
	// and EN_AA is always 0x3F.
	StrictPipeMask bool
	// Logger receives driver logs. A nil Logger disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration of a receiver on channel 2 at
// 250kbps with 1 byte CRC and pipe 0 receiving 4 byte payloads on the
// chip's default address.
func DefaultConfig() Config {
	return Config{
		AddressWidth: reg.DefaultAddrWidth,
		Pipes:        []Pipe{FixedPipe(4)},
		Channel:      2,
		Speed:        Speed250kbps,
		CRCBytes:     1,
	}
}

// Device is an nRF24L01(+) configured as primary receiver.
// Device methods may be called from several goroutines; bus transactions
// are serialized. A Transport must not be shared with another Device.
type Device struct {
	mu            sync.Mutex
	bus           Transport
	logger        *slog.Logger
	_traceenabled bool

	crcBits    uint8
	irqMask    uint8
	aw         int
	channel    uint8
	pipes      []Pipe
	masks      PipeMasks
	lastStatus reg.Status
	// rwBuf used by command and commandWrite.
	rwBuf [1 + reg.MaxPayloadSize]byte
}

// New configures the transceiver attached to bus as primary receiver and
// raises CE to start listening.
func New(bus Transport, cfg Config) (*Device, error) {
	d := &Device{bus: bus}
	err := d.Init(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Init reprograms every register from cfg. It is called by New and
// may be called again to reconfigure the Device.
func (d *Device) Init(cfg Config) (err error) {
	d.acquire()
	defer d.release()
	d.logger = cfg.Logger
	d._traceenabled = d.logger != nil && d.logger.Handler().Enabled(context.Background(), levelTrace)
	d.info("Init:start")
	start := time.Now()

	// Keep the RF section off while registers change.
	err = d.bus.SetCE(false)
	if err != nil {
		return err
	}

	d.crcBits = 0
	if cfg.CRCBytes > 0 {
		d.crcBits = 1<<reg.EN_CRC | b2u8(cfg.CRCBytes > 1)<<reg.CRCO
	}
	// RX_DR, TX_DS and MAX_RT are all reflected on the IRQ pin.
	d.irqMask = 0<<reg.MASK_RX_DR | 0<<reg.MASK_TX_DS | 0<<reg.MASK_MAX_RT

	// Power up in PTX mode until pipes are ready.
	err = d.writeRegister(reg.CONFIG, d.crcBits|d.irqMask|1<<reg.PWR_UP)
	if err != nil {
		return err
	}

	d.aw = clamp(cfg.AddressWidth, reg.MinAddressWidth, reg.MaxAddressWidth)
	err = d.writeRegister(reg.SETUP_AW, uint8(d.aw-2))
	if err != nil {
		return err
	}

	// 4000us retransmit delay, 15 retransmits.
	err = d.writeRegister(reg.SETUP_RETR, reg.SETUP_RETR_MAX)
	if err != nil {
		return err
	}

	d.channel = uint8(clamp(cfg.Channel, 0, reg.MaxChannel))
	d.info("Init:channel", u8attr("ch", d.channel))
	err = d.writeRegister(reg.RF_CH, d.channel)
	if err != nil {
		return err
	}

	const fullPower = 3 << reg.RF_PWR
	rfSetup := cfg.Speed.rfBits() | fullPower
	d.info("Init:rf-setup", u8attr("rf_setup", rfSetup), slog.String("speed", cfg.Speed.String()))
	err = d.writeRegister(reg.RF_SETUP, rfSetup)
	if err != nil {
		return err
	}

	d.pipes = append(d.pipes[:0], cfg.Pipes[:min(len(cfg.Pipes), reg.NumPipes)]...)
	d.masks = computeMasks(d.pipes)
	if len(d.pipes) > 0 {
		err = d.initPipes(cfg.StrictPipeMask)
		if err != nil {
			return err
		}
	} else {
		d.warn("Init:no pipes configured, receiver has no enabled pipe")
	}

	err = d.writeRegister(reg.CONFIG, d.crcBits|d.irqMask|1<<reg.PWR_UP|1<<reg.PRIM_RX)
	if err != nil {
		return err
	}
	err = d.bus.SetCE(true)
	if err != nil {
		return err
	}
	d.info("Init:done", slog.Duration("took", time.Since(start)))
	return nil
}

// initPipes programs FEATURE, the per pipe address and width registers,
// DYNPD, EN_RXADDR and EN_AA.
func (d *Device) initPipes(strict bool) (err error) {
	feature := b2u8(d.masks.Dynamic != 0)<<reg.EN_DPL | 1<<reg.EN_ACK_PAY
	d.info("Init:feature", slog.String("feature", reg.Feature(feature).String()))
	err = d.writeRegister(reg.FEATURE, feature)
	if err != nil {
		return err
	}

	for pn, p := range d.pipes {
		if !p.enabled {
			d.debug("Init:pipe disabled", slog.Int("pipe", pn))
			continue
		}
		if addr, ok := p.Address(); ok {
			d.debug("Init:pipe address", slog.Int("pipe", pn), hexattr("addr", addr))
			err = d.writeRegister(reg.RxAddr(pn), addr...)
			if err != nil {
				return err
			}
		}
		width := uint8(1)
		if !p.Dynamic() {
			width = clamp(p.size, 1, reg.MaxPayloadSize)
		}
		d.debug("Init:pipe width", slog.Int("pipe", pn), u8attr("width", width), slog.Bool("dynamic", p.Dynamic()))
		err = d.writeRegister(reg.RxPW(pn), width)
		if err != nil {
			return err
		}
	}

	d.debug("Init:dynpd", slog.String("dynpd", d.masks.Dynamic.String()))
	err = d.writeRegister(reg.DYNPD, uint8(d.masks.Dynamic))
	if err != nil {
		return err
	}

	enabled := d.masks.Enabled
	if !strict {
		enabled = 1<<0 | 1<<1
	}
	d.debug("Init:en_rxaddr", slog.String("computed", d.masks.Enabled.String()), slog.String("written", enabled.String()))
	err = d.writeRegister(reg.EN_RXADDR, uint8(enabled))
	if err != nil {
		return err
	}

	err = d.writeRegister(reg.EN_AA, uint8(d.masks.AutoAck))
	if err != nil || strict {
		return err
	}
	return d.writeRegister(reg.EN_AA, reg.AllPipes)
}

// PipeMasks returns the pipe masks computed from the configured pipes.
// With StrictPipeMask unset they differ from what EN_RXADDR and EN_AA hold.
func (d *Device) PipeMasks() PipeMasks {
	d.acquire()
	defer d.release()
	return d.masks
}

// Pipes returns the configured pipes.
func (d *Device) Pipes() []Pipe {
	d.acquire()
	defer d.release()
	return append([]Pipe(nil), d.pipes...)
}

// AddressWidth returns the configured address width in bytes.
func (d *Device) AddressWidth() int {
	d.acquire()
	defer d.release()
	return d.aw
}

// Channel returns the last programmed RF channel.
func (d *Device) Channel() int {
	d.acquire()
	defer d.release()
	return int(d.channel)
}

func (d *Device) acquire() { d.mu.Lock() }

func (d *Device) release() { d.mu.Unlock() }
