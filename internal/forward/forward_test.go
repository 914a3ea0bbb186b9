package forward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soypat/nrf24"
)

func TestTopic(t *testing.T) {
	if got := Topic("home/nrf", 3); got != "home/nrf/pipe/3" {
		t.Errorf("got %q", got)
	}
}

func TestEncode(t *testing.T) {
	m := Message{Pipe: 1, Payload: []byte{0xde, 0xad, 0x01}}
	if got := string(Encode(m)); got != "pipe=1 payload=dead01" {
		t.Errorf("got %q", got)
	}
	m.Time = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := string(Encode(m)); got != "pipe=1 payload=dead01 t=2024-03-01T12:00:00Z" {
		t.Errorf("got %q", got)
	}
}

type scriptedReceiver struct {
	reads []func() (nrf24.Rx, error)
	n     int
}

func (s *scriptedReceiver) Read() (nrf24.Rx, error) {
	if s.n >= len(s.reads) {
		return nrf24.Rx{}, errors.New("script exhausted")
	}
	s.n++
	return s.reads[s.n-1]()
}

type recordingSink struct {
	got    []Message
	err    error
	closed bool
}

func (s *recordingSink) Forward(_ context.Context, m Message) error {
	s.got = append(s.got, m)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func packet(pipe int, payload ...byte) nrf24.Packet {
	return nrf24.Packet{Pipe: pipe, Payload: nrf24.MakeBuffer(payload)}
}

func TestPump(t *testing.T) {
	errStop := errors.New("stop")
	rcv := &scriptedReceiver{reads: []func() (nrf24.Rx, error){
		func() (nrf24.Rx, error) { return nrf24.Rx{}, nil },
		func() (nrf24.Rx, error) {
			return nrf24.Rx{Packets: []nrf24.Packet{packet(0, 1, 2), packet(2, 3)}}, nil
		},
		func() (nrf24.Rx, error) { return nrf24.Rx{}, nrf24.ErrCorruptFIFO },
		func() (nrf24.Rx, error) {
			return nrf24.Rx{Packets: []nrf24.Packet{packet(1, 4)}, Anomaly: nrf24.ErrNoPipeIndex}, nil
		},
		func() (nrf24.Rx, error) {
			return nrf24.Rx{Packets: []nrf24.Packet{packet(5, 5)}}, errStop
		},
	}}
	good := &recordingSink{}
	bad := &recordingSink{err: errors.New("broker down")}
	err := Pump(context.Background(), rcv, time.Millisecond, nil, good, bad)
	if !errors.Is(err, errStop) {
		t.Fatalf("got %v, want read error", err)
	}
	wantPipes := []int{0, 2, 1, 5}
	for _, sink := range []*recordingSink{good, bad} {
		if len(sink.got) != len(wantPipes) {
			t.Fatalf("sink got %d messages, want %d", len(sink.got), len(wantPipes))
		}
		for i, m := range sink.got {
			if m.Pipe != wantPipes[i] {
				t.Errorf("message %d pipe %d, want %d", i, m.Pipe, wantPipes[i])
			}
			if m.Time.IsZero() {
				t.Errorf("message %d without timestamp", i)
			}
		}
	}
	if p := good.got[0].Payload; len(p) != 2 || p[0] != 1 || p[1] != 2 {
		t.Errorf("payload % x", p)
	}

	if err = CloseAll(good, bad); err != nil || !good.closed || !bad.closed {
		t.Errorf("CloseAll: %v", err)
	}
}

func TestPumpCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rcv := &scriptedReceiver{}
	err := Pump(ctx, rcv, time.Hour, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if rcv.n != 0 {
		t.Error("read after cancel")
	}
}

func TestPumpBadInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		rcv := &scriptedReceiver{}
		err := Pump(context.Background(), rcv, interval, nil)
		if !errors.Is(err, ErrPollInterval) {
			t.Errorf("interval %v: got %v, want ErrPollInterval", interval, err)
		}
		if rcv.n != 0 {
			t.Errorf("interval %v: receiver read", interval)
		}
	}
}
