package nrf24

import "errors"

// SPIbb is a dumb bit-bang implementation of SPI mode 0, most significant
// bit first, for boards without a free SPI peripheral. Pins are given as
// functions so any GPIO driver can back them, i.e. machine.Pin.Set and
// machine.Pin.Get on TinyGo.
type SPIbb struct {
	SCK func(level bool)
	SDO func(level bool)
	SDI func() bool
	CSN func(level bool)
	CE  func(level bool)
	// Delay, if set, is called every quarter clock cycle.
	Delay func()
	buf   [1 + 32]byte
}

var _ Transport = (*SPIbb)(nil)

// Configure drives CSN high and SCK, SDO and CE low.
func (s *SPIbb) Configure() error {
	if s.SCK == nil || s.SDO == nil || s.SDI == nil || s.CSN == nil || s.CE == nil {
		return errors.New("nrf24: SPIbb pin not set")
	}
	s.CSN(true)
	s.SCK(false)
	s.SDO(false)
	s.CE(false)
	return nil
}

// Transfer implements Transport. The returned slice is only valid until the
// next call to Transfer.
func (s *SPIbb) Transfer(w []byte, n int) ([]byte, error) {
	size := max(len(w), n)
	r := s.buf[:0]
	if n > len(s.buf) {
		r = make([]byte, 0, n)
	}
	s.CSN(false)
	for i := 0; i < size; i++ {
		var b byte
		if i < len(w) {
			b = w[i]
		}
		got := s.transfer(b)
		if i < n {
			r = append(r, got)
		}
	}
	s.CSN(true)
	return r, nil
}

// SetCE implements Transport.
func (s *SPIbb) SetCE(high bool) error {
	s.CE(high)
	return nil
}

func (s *SPIbb) transfer(b byte) (out byte) {
	for bit := 7; bit >= 0; bit-- {
		out |= b2u8(s.bitTransfer(b&(1<<bit) != 0)) << bit
	}
	return out
}

func (s *SPIbb) bitTransfer(b bool) bool {
	s.SDO(b)
	s.delay()
	s.SCK(true)
	s.delay()
	inputBit := s.SDI()
	s.delay()
	s.SCK(false)
	s.delay()
	return inputBit
}

// delay represents a quarter of the clock cycle.
func (s *SPIbb) delay() {
	if s.Delay != nil {
		s.Delay()
	}
}
