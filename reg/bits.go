package reg

import "strconv"

// Status is the value of the STATUS register. It is clocked out by the
// chip as the first byte of every SPI transaction.
type Status uint8

// DataReady returns true if a packet arrived in the RX FIFO (RX_DR).
func (s Status) DataReady() bool { return s&(1<<RX_DR) != 0 }

// DataSent returns true if the TX_DS interrupt is asserted.
func (s Status) DataSent() bool { return s&(1<<TX_DS) != 0 }

// MaxRetransmits returns true if the MAX_RT interrupt is asserted.
func (s Status) MaxRetransmits() bool { return s&(1<<MAX_RT) != 0 }

// TxFull returns true if the TX FIFO is full.
func (s Status) TxFull() bool { return s&(1<<TX_FULL) != 0 }

// RxPipeField returns the raw 3 bit RX_P_NO field.
func (s Status) RxPipeField() uint8 { return uint8(s&RX_P_NO_MASK) >> RX_P_NO }

// RxPipe returns the data pipe number of the payload available for
// reading from the RX FIFO or -1 if the RX FIFO is empty.
func (s Status) RxPipe() int {
	n := s.RxPipeField()
	if n == RxFIFOEmpty {
		return -1
	}
	return int(n)
}

func (s Status) String() string {
	return flags("RxDR+ TxDS+ MaxRT+ TxFull+ RxPipe:", 0x71, byte(s)) +
		strconv.Itoa(s.RxPipe())
}

// FIFO is the value of the FIFO_STATUS register.
type FIFO uint8

func (f FIFO) RxEmpty() bool { return f&(1<<RX_EMPTY) != 0 }
func (f FIFO) RxFull() bool  { return f&(1<<RX_FULL) != 0 }
func (f FIFO) TxEmpty() bool { return f&(1<<TX_EMPTY) != 0 }
func (f FIFO) TxFull() bool  { return f&(1<<FIFO_TXFULL) != 0 }
func (f FIFO) TxReuse() bool { return f&(1<<TX_REUSE) != 0 }

func (f FIFO) String() string {
	return flags("TxReuse+ TxFull+ TxEmpty+ RxFull+ RxEmpty+", 0x73, byte(f))
}

// Config is the value of the CONFIG register.
type Config uint8

func (c Config) String() string {
	return flags("Mask(RxDR+ TxDS+ MaxRT+) EnCRC+ CRCO+ PwrUp+ PrimRx+", 0x7f, byte(c))
}

// RFSetup is the value of the RF_SETUP register.
type RFSetup uint8

// Pwr returns the RF output power in dBm.
func (rf RFSetup) Pwr() int {
	return 6*int(rf>>RF_PWR&3) - 18
}

// DataRate returns the over the air data rate in kbps.
func (rf RFSetup) DataRate() int {
	switch {
	case rf&(1<<RF_DR_LOW) != 0:
		return 250
	case rf&(1<<RF_DR_HIGH) != 0:
		return 2000
	}
	return 1000
}

func (rf RFSetup) String() string {
	return flags("Wave+ DRLow+ Lock+ DRHigh+", 0xb8, byte(rf)) +
		" Pwr:" + strconv.Itoa(rf.Pwr()) + "dBm Rate:" + strconv.Itoa(rf.DataRate()) + "kbps"
}

// Feature is the value of the FEATURE register.
type Feature uint8

func (f Feature) String() string {
	return flags("DPL+ AckPay+ DynAck+", 7, byte(f))
}

// Pipes is a bitfield with one bit per data pipe as used by EN_AA,
// EN_RXADDR and DYNPD.
type Pipes uint8

// Has reports whether pipe pn is set.
func (p Pipes) Has(pn int) bool { return uint(pn) < NumPipes && p&(1<<pn) != 0 }

func (p Pipes) String() string {
	return flags("P5+ P4+ P3+ P2+ P1+ P0+", 0x3f, byte(p))
}

// flags renders the bits of b selected by mask over the template f.
// Every '+' in f is replaced by '+' or '-' for the next set bit of mask,
// scanning from the most significant bit.
func flags(f string, mask, b byte) string {
	buf := make([]byte, len(f))
	m := byte(0x80)
	for i := range buf {
		if f[i] == '+' {
			for mask&m == 0 {
				m >>= 1
			}
			if b&m == 0 {
				buf[i] = '-'
			} else {
				buf[i] = '+'
			}
			m >>= 1
		} else {
			buf[i] = f[i]
		}
	}
	return string(buf)
}
