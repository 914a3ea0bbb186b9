package nrf24

import "github.com/soypat/nrf24/reg"

// Buffer is a byte sequence of at most 32 bytes, the width of a
// hardware FIFO slot. Register values and payloads are carried in Buffers.
type Buffer struct {
	n   uint8
	buf [reg.MaxPayloadSize]byte
}

// MakeBuffer copies b into a Buffer. Bytes past the 32nd are dropped.
func MakeBuffer(b []byte) Buffer {
	var bf Buffer
	bf.n = uint8(copy(bf.buf[:], b))
	return bf
}

// Len returns the number of bytes held.
func (b Buffer) Len() int { return int(b.n) }

// Bytes returns a copy of the held bytes.
func (b Buffer) Bytes() []byte {
	out := make([]byte, b.n)
	copy(out, b.buf[:b.n])
	return out
}

// Reversed returns the Buffer with its bytes in reverse order.
func (b Buffer) Reversed() Buffer {
	var r Buffer
	r.n = b.n
	for i := 0; i < int(b.n); i++ {
		r.buf[i] = b.buf[int(b.n)-1-i]
	}
	return r
}

// Truncate returns the first n bytes of b. n is clamped to [0, b.Len()].
func (b Buffer) Truncate(n int) Buffer {
	b.n = uint8(clamp(n, 0, int(b.n)))
	return b
}

func (b Buffer) String() string { return hexstr(b.buf[:b.n]) }

// appendTo appends the held bytes to dst.
func (b *Buffer) appendTo(dst []byte) []byte {
	return append(dst, b.buf[:b.n]...)
}
