package nrf24

import (
	"bytes"
	"errors"
	"testing"

	"github.com/soypat/nrf24/internal/nrfsim"
	"github.com/soypat/nrf24/reg"
)

func TestRegisterLoopback(t *testing.T) {
	dev, _ := newTestDevice(t, DefaultConfig())
	for _, a := range []reg.Addr{reg.EN_AA, reg.EN_RXADDR, reg.SETUP_RETR, reg.RF_CH, reg.RF_SETUP, reg.RX_PW_P3, reg.DYNPD, reg.FEATURE} {
		for _, v := range []byte{0x00, 0x15, 0x2a, 0x3f} {
			err := dev.WriteRegister(a, v)
			if err != nil {
				t.Fatal(err)
			}
			got, err := dev.ReadRegister(a, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0] != v {
				t.Errorf("%s: wrote %#x, read %x", a, v, got)
			}
		}
	}
}

func TestAddressByteOrder(t *testing.T) {
	dev, chip := newTestDevice(t, DefaultConfig())
	chip.ClearHistory()
	addr := []byte{0x9a, 0x78, 0x56, 0x34, 0x12}
	err := dev.WriteRegister(reg.RX_ADDR_P0, addr...)
	if err != nil {
		t.Fatal(err)
	}
	xfers := chip.Transfers()
	if len(xfers) != 1 {
		t.Fatalf("got %d transactions, want 1", len(xfers))
	}
	wantWire := []byte{0x2a, 0x12, 0x34, 0x56, 0x78, 0x9a}
	if !bytes.Equal(xfers[0].Out, wantWire) {
		t.Errorf("clocked out % x, want % x", xfers[0].Out, wantWire)
	}
	got, err := dev.ReadRegister(reg.RX_ADDR_P0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, addr) {
		t.Errorf("read back % x, want % x", got, addr)
	}
}

func TestPipeAddressWrittenReversed(t *testing.T) {
	_, chip := newTestDevice(t, Config{
		AddressWidth: 5,
		Pipes: []Pipe{
			FixedPipe(4).WithAddress(0x9a, 0x78, 0x56, 0x34, 0x12),
			FixedPipe(4).WithAddress(0xc2, 0xc2, 0xc2, 0xc2, 0x01),
			FixedPipe(4).WithAddress(0x05),
		},
	})
	if got := chip.Reg(reg.RX_ADDR_P0); !bytes.Equal(got, []byte{0x12, 0x34, 0x56, 0x78, 0x9a}) {
		t.Errorf("RX_ADDR_P0 wire % x", got)
	}
	if got := chip.Reg(reg.RX_ADDR_P1); !bytes.Equal(got, []byte{0x01, 0xc2, 0xc2, 0xc2, 0xc2}) {
		t.Errorf("RX_ADDR_P1 wire % x", got)
	}
	if got := chip.Reg(reg.RX_ADDR_P2); !bytes.Equal(got, []byte{0x05}) {
		t.Errorf("RX_ADDR_P2 wire % x", got)
	}
}

func TestCommandReversesData(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{FixedPipe(3)}})
	chip.Receive(0, 1, 2, 3)
	got, err := dev.Command(reg.R_RX_PAYLOAD, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{3, 2, 1}) {
		t.Errorf("got % x, want 03 02 01", got)
	}
	got, err = dev.Command(reg.FLUSH_RX, 0)
	if err != nil || got != nil {
		t.Errorf("FLUSH_RX returned %x, %v", got, err)
	}
}

func TestStatusCaching(t *testing.T) {
	dev, chip := newTestDevice(t, DefaultConfig())
	if dev.LastStatus() != 0 {
		t.Fatal("status cached before any read")
	}
	chip.AssertIRQ(1 << reg.MAX_RT)
	stat, err := dev.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !stat.MaxRetransmits() || stat.RxPipe() != -1 {
		t.Errorf("status %s", stat)
	}
	chip.ClearHistory()
	if dev.LastStatus() != stat {
		t.Errorf("LastStatus %s, want %s", dev.LastStatus(), stat)
	}
	if len(chip.Transfers()) != 0 {
		t.Error("LastStatus touched the bus")
	}

	fifo, err := dev.FIFOStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !fifo.RxEmpty() || !fifo.TxEmpty() {
		t.Errorf("fifo %s", fifo)
	}
}

func TestTransportError(t *testing.T) {
	dev, chip := newTestDevice(t, DefaultConfig())
	chip.FailAt(1)
	_, err := dev.Status()
	if !errors.Is(err, nrfsim.ErrBus) {
		t.Fatalf("got %v, want ErrBus", err)
	}
	// Failure is one shot.
	_, err = dev.Status()
	if err != nil {
		t.Fatal(err)
	}

	chip.FailAt(3)
	err = dev.Init(DefaultConfig())
	if !errors.Is(err, nrfsim.ErrBus) {
		t.Fatalf("Init got %v, want ErrBus", err)
	}
}

type shortTransport struct{}

func (shortTransport) Transfer(w []byte, n int) ([]byte, error) {
	return make([]byte, n/2), nil
}

func (shortTransport) SetCE(bool) error { return nil }

func TestShortTransfer(t *testing.T) {
	dev, err := New(shortTransport{}, DefaultConfig())
	if err != nil {
		t.Fatal(err) // Writes request n=0 and cannot be short.
	}
	_, err = dev.ReadRegister(reg.RX_ADDR_P0, 5)
	if !errors.Is(err, ErrShortTransfer) {
		t.Errorf("got %v, want ErrShortTransfer", err)
	}
}
