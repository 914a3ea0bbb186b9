package nrf24

import (
	"bytes"
	"testing"

	"github.com/soypat/nrf24/reg"
)

func TestPipe(t *testing.T) {
	for _, test := range []struct {
		p       Pipe
		enabled bool
		dynamic bool
		size    int
		str     string
	}{
		{p: Pipe{}, str: "Pipe(disabled)"},
		{p: FixedPipe(4), enabled: true, size: 4, str: "Pipe(size=4)"},
		{p: FixedPipe(100), enabled: true, size: 32, str: "Pipe(size=32)"},
		{p: FixedPipe(0), enabled: true, dynamic: true, str: "Pipe(size=dyn)"},
		{p: FixedPipe(-2), enabled: true, dynamic: true, str: "Pipe(size=dyn)"},
		{p: DynamicPipe().WithAddress(0xc3), enabled: true, dynamic: true, str: "Pipe(size=dyn addr=c3)"},
	} {
		if test.p.Enabled() != test.enabled || test.p.Dynamic() != test.dynamic || test.p.Size() != test.size {
			t.Errorf("%s: enabled=%v dynamic=%v size=%d", test.str, test.p.Enabled(), test.p.Dynamic(), test.p.Size())
		}
		if got := test.p.String(); got != test.str {
			t.Errorf("got %q, want %q", got, test.str)
		}
	}
}

func TestPipeAddress(t *testing.T) {
	if _, ok := FixedPipe(4).Address(); ok {
		t.Error("pipe without address reported one")
	}
	src := []byte{1, 2, 3, 4, 5, 6, 7}
	p := FixedPipe(4).WithAddress(src...)
	src[0] = 0xff
	addr, ok := p.Address()
	if !ok || !bytes.Equal(addr, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("address % x", addr)
	}
	addr[1] = 0xff
	if again, _ := p.Address(); again[1] != 2 {
		t.Error("Address exposes internal storage")
	}
}

func TestComputeMasks(t *testing.T) {
	m := computeMasks([]Pipe{DynamicPipe(), {}, FixedPipe(1), {}, {}, DynamicPipe()})
	if m.Enabled != 0b100101 || m.AutoAck != 0b100101 || m.Dynamic != 0b100001 {
		t.Errorf("masks %+v", m)
	}
	if !m.Enabled.Has(5) || m.Enabled.Has(1) {
		t.Error("Pipes.Has mismatch")
	}
	if m := computeMasks(nil); m != (PipeMasks{}) {
		t.Errorf("empty masks %+v", m)
	}
}

func TestBuffer(t *testing.T) {
	b := MakeBuffer(bytes.Repeat([]byte{7}, 40))
	if b.Len() != reg.MaxPayloadSize {
		t.Fatalf("len %d", b.Len())
	}
	b = MakeBuffer([]byte{1, 2, 3})
	if !bytes.Equal(b.Reversed().Bytes(), []byte{3, 2, 1}) {
		t.Errorf("reversed %s", b.Reversed())
	}
	if b.Truncate(2).String() != "01 02" || b.Truncate(9).Len() != 3 || b.Truncate(-1).Len() != 0 {
		t.Error("bad truncate")
	}
	if got := b.appendTo([]byte{0}); !bytes.Equal(got, []byte{0, 1, 2, 3}) {
		t.Errorf("appendTo % x", got)
	}
}

func TestClamp(t *testing.T) {
	if clamp(200, 0, 127) != 127 || clamp(-1, 0, 127) != 0 || clamp(uint8(9), 1, 32) != 9 {
		t.Error("bad clamp")
	}
}
