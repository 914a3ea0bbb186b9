package nrf24

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/soypat/nrf24/internal/nrfsim"
	"github.com/soypat/nrf24/reg"
)

func TestReadIdle(t *testing.T) {
	dev, chip := newTestDevice(t, DefaultConfig())
	chip.ClearHistory()
	for i := 0; i < 3; i++ {
		rx, err := dev.Read()
		if err != nil {
			t.Fatal(err)
		}
		if !rx.Empty() {
			t.Fatalf("idle read returned %+v", rx)
		}
	}
	// Only NOPs: nothing is cleared or flushed while idle.
	if n := chip.Issued(reg.NOP); n != 3 {
		t.Errorf("issued %d NOPs, want 3", n)
	}
	if n := len(chip.Transfers()); n != 3 {
		t.Errorf("issued %d transactions, want 3", n)
	}
}

func TestReadDrainsInOrder(t *testing.T) {
	dev, chip := newTestDevice(t, Config{
		AddressWidth: 5,
		Pipes:        []Pipe{FixedPipe(4), DynamicPipe()},
	})
	sent := []struct {
		pipe    int
		payload []byte
	}{
		{pipe: 0, payload: []byte{0x01, 0x02, 0x03, 0x04}},
		{pipe: 1, payload: []byte("hello")},
		{pipe: 0, payload: []byte{0xde, 0xad, 0xbe, 0xef}},
	}
	for _, s := range sent {
		if !chip.Receive(s.pipe, s.payload...) {
			t.Fatal("RX FIFO full")
		}
	}
	rx, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if rx.Anomaly != nil {
		t.Fatal(rx.Anomaly)
	}
	if len(rx.Packets) != len(sent) {
		t.Fatalf("drained %d packets, want %d", len(rx.Packets), len(sent))
	}
	for i, p := range rx.Packets {
		if p.Pipe != sent[i].pipe {
			t.Errorf("packet %d: pipe %d, want %d", i, p.Pipe, sent[i].pipe)
		}
		// Payloads are returned last received byte first.
		want := reversed(sent[i].payload)
		if !bytes.Equal(p.Payload.Bytes(), want) {
			t.Errorf("packet %d: payload % x, want % x", i, p.Payload.Bytes(), want)
		}
		if !bytes.Equal(p.Payload.Reversed().Bytes(), sent[i].payload) {
			t.Errorf("packet %d: Reversed payload % x", i, p.Payload.Reversed().Bytes())
		}
	}
	if chip.RxLen() != 0 {
		t.Error("RX FIFO not drained")
	}
	if chip.Status().DataReady() {
		t.Error("RX_DR left set")
	}
	if n := chip.Issued(reg.R_RX_PL_WID); n != 1 {
		t.Errorf("R_RX_PL_WID issued %d times, want 1 for the dynamic pipe", n)
	}
	if !dev.LastStatus().DataReady() {
		t.Error("LastStatus should hold the status that started the drain")
	}

	rx, err = dev.Read()
	if err != nil || !rx.Empty() {
		t.Errorf("second read: %+v, %v", rx, err)
	}
}

func TestReadCorruptFIFO(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{DynamicPipe()}})
	chip.Receive(0, 0xaa, 0xbb)
	chip.ReceiveWidth(0, 40, make([]byte, 32)...)
	chip.Receive(0, 0xcc)
	rx, err := dev.Read()
	if !errors.Is(err, ErrCorruptFIFO) {
		t.Fatalf("got %v, want ErrCorruptFIFO", err)
	}
	if len(rx.Packets) != 0 || rx.Anomaly != nil {
		t.Errorf("packets kept after corruption: %+v", rx)
	}
	if n := chip.Issued(reg.FLUSH_RX); n != 1 {
		t.Errorf("FLUSH_RX issued %d times, want 1", n)
	}
	if chip.RxLen() != 0 {
		t.Error("RX FIFO not flushed")
	}
}

func TestReadNoPipeIndex(t *testing.T) {
	dev, chip := newTestDevice(t, DefaultConfig())
	chip.ClearHistory()
	chip.AssertIRQ(1 << reg.RX_DR)
	rx, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(rx.Anomaly, ErrNoPipeIndex) {
		t.Fatalf("anomaly %v, want ErrNoPipeIndex", rx.Anomaly)
	}
	if rx.Empty() {
		t.Error("Rx with anomaly reported empty")
	}
	w := chip.Writes(reg.STATUS)
	if len(w) != 1 || w[0][0] != 0x70 {
		t.Errorf("STATUS writes %x, want [70]", w)
	}
	if chip.Status().DataReady() {
		t.Error("RX_DR not cleared")
	}
}

func TestReadPipeRange(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{FixedPipe(2)}})
	chip.Receive(0, 1, 2)
	chip.Receive(3, 3, 4)
	rx, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(rx.Packets) != 1 || rx.Packets[0].Pipe != 0 {
		t.Fatalf("packets %+v, want the pipe 0 packet", rx.Packets)
	}
	var perr *PipeRangeError
	if !errors.As(rx.Anomaly, &perr) {
		t.Fatalf("anomaly %v, want *PipeRangeError", rx.Anomaly)
	}
	if perr.Pipe != 3 || perr.NumPipes != 1 || perr.Disabled {
		t.Errorf("anomaly %+v", perr)
	}
	if !errors.Is(rx.Anomaly, ErrPipeRange) {
		t.Error("PipeRangeError does not wrap ErrPipeRange")
	}
	// The offending packet stays queued.
	if chip.RxLen() != 1 {
		t.Errorf("RX FIFO holds %d packets, want 1", chip.RxLen())
	}
}

func TestReadPipeRangeRepeats(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{FixedPipe(2)}})
	chip.Receive(1, 1, 2)
	for i := 0; i < 2; i++ {
		rx, err := dev.Read()
		if err != nil || len(rx.Packets) != 0 || !errors.Is(rx.Anomaly, ErrPipeRange) {
			t.Fatalf("read %d: %+v, %v", i, rx, err)
		}
	}
	// Packets behind the offending one are not reached.
	chip.Receive(0, 3, 4)
	rx, err := dev.Read()
	if err != nil || len(rx.Packets) != 0 || !errors.Is(rx.Anomaly, ErrPipeRange) {
		t.Fatalf("read behind blocked packet: %+v, %v", rx, err)
	}
	if err = dev.ClearRx(); err != nil {
		t.Fatal(err)
	}
	if err = dev.ClearStatus(); err != nil {
		t.Fatal(err)
	}
	rx, err = dev.Read()
	if err != nil || !rx.Empty() {
		t.Errorf("read after discard: %+v, %v", rx, err)
	}
}

func TestReadDisabledPipe(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{FixedPipe(2), {}}})
	chip.Receive(1, 1, 2)
	rx, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	var perr *PipeRangeError
	if !errors.As(rx.Anomaly, &perr) || !perr.Disabled || perr.Pipe != 1 {
		t.Fatalf("anomaly %v, want disabled pipe 1", rx.Anomaly)
	}
}

func TestReadTransportFailure(t *testing.T) {
	var logbuf bytes.Buffer
	dev, chip := newTestDevice(t, Config{
		Pipes:  []Pipe{FixedPipe(2)},
		Logger: slog.New(slog.NewTextHandler(&logbuf, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	chip.Receive(0, 1, 2)
	chip.Receive(0, 3, 4)
	// NOP, R_RX_PAYLOAD, W_REGISTER STATUS, R_REGISTER FIFO_STATUS, R_RX_PAYLOAD.
	chip.FailAt(5)
	rx, err := dev.Read()
	if !errors.Is(err, nrfsim.ErrBus) {
		t.Fatalf("got %v, want ErrBus", err)
	}
	if len(rx.Packets) != 1 {
		t.Fatalf("kept %d packets, want 1", len(rx.Packets))
	}
	if !bytes.Equal(rx.Packets[0].Payload.Bytes(), []byte{2, 1}) {
		t.Errorf("payload %s", rx.Packets[0].Payload)
	}
	if log := logbuf.String(); !strings.Contains(log, "rx:drain failed") || !strings.Contains(log, "drained=1") {
		t.Errorf("failure not logged: %q", log)
	}
}

func TestReadFullFIFO(t *testing.T) {
	dev, chip := newTestDevice(t, Config{Pipes: []Pipe{DynamicPipe(), DynamicPipe()}})
	for i := 0; i < reg.FIFODepth; i++ {
		chip.Receive(i%2, byte(i))
	}
	if chip.Receive(0, 0xff) {
		t.Fatal("simulator accepted packet on full FIFO")
	}
	fifo, err := dev.FIFOStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !fifo.RxFull() {
		t.Errorf("fifo %s, want RX_FULL", fifo)
	}
	rx, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(rx.Packets) != reg.FIFODepth {
		t.Fatalf("drained %d packets", len(rx.Packets))
	}
	for i, p := range rx.Packets {
		if p.Pipe != i%2 || p.Payload.Bytes()[0] != byte(i) {
			t.Errorf("packet %d: %+v", i, p)
		}
	}
}
