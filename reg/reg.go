// Package reg contains the nRF24L01(+) SPI command set, register map and
// register bit definitions as named in the Nordic datasheet.
package reg

// Addr is a 5 bit register address.
type Addr uint8

// Register addresses.
const (
	CONFIG      Addr = 0x00
	EN_AA       Addr = 0x01
	EN_RXADDR   Addr = 0x02
	SETUP_AW    Addr = 0x03
	SETUP_RETR  Addr = 0x04
	RF_CH       Addr = 0x05
	RF_SETUP    Addr = 0x06
	STATUS      Addr = 0x07
	OBSERVE_TX  Addr = 0x08
	RPD         Addr = 0x09 // CD on nRF24L01 (non plus).
	RX_ADDR_P0  Addr = 0x0A
	RX_ADDR_P1  Addr = 0x0B
	RX_ADDR_P2  Addr = 0x0C
	RX_ADDR_P3  Addr = 0x0D
	RX_ADDR_P4  Addr = 0x0E
	RX_ADDR_P5  Addr = 0x0F
	TX_ADDR     Addr = 0x10
	RX_PW_P0    Addr = 0x11
	RX_PW_P1    Addr = 0x12
	RX_PW_P2    Addr = 0x13
	RX_PW_P3    Addr = 0x14
	RX_PW_P4    Addr = 0x15
	RX_PW_P5    Addr = 0x16
	FIFO_STATUS Addr = 0x17
	DYNPD       Addr = 0x1C
	FEATURE     Addr = 0x1D
)

// AddrMask selects the register address bits of R_REGISTER and W_REGISTER.
const AddrMask = 0x1F

// Cmd is an SPI command word. It is always the first byte clocked out
// in a transaction.
type Cmd uint8

const (
	R_REGISTER         Cmd = 0x00 // OR'd with register address.
	W_REGISTER         Cmd = 0x20 // OR'd with register address.
	R_RX_PL_WID        Cmd = 0x60
	R_RX_PAYLOAD       Cmd = 0x61
	W_TX_PAYLOAD       Cmd = 0xA0
	W_ACK_PAYLOAD      Cmd = 0xA8 // OR'd with pipe number.
	W_TX_PAYLOAD_NOACK Cmd = 0xB0
	FLUSH_TX           Cmd = 0xE1
	FLUSH_RX           Cmd = 0xE2
	REUSE_TX_PL        Cmd = 0xE3
	NOP                Cmd = 0xFF
)

// CONFIG bits.
const (
	PRIM_RX     = 0
	PWR_UP      = 1
	CRCO        = 2
	EN_CRC      = 3
	MASK_MAX_RT = 4
	MASK_TX_DS  = 5
	MASK_RX_DR  = 6
)

// SETUP_AW, SETUP_RETR field positions.
const (
	AW  = 0 // 2 bits.
	ARC = 0 // 4 bits.
	ARD = 4 // 4 bits.
)

// RF_SETUP bits.
const (
	RF_PWR     = 1 // 2 bits.
	RF_DR_HIGH = 3
	PLL_LOCK   = 4
	RF_DR_LOW  = 5
	CONT_WAVE  = 7
)

// STATUS bits.
const (
	TX_FULL      = 0
	RX_P_NO      = 1 // 3 bits.
	MAX_RT       = 4
	TX_DS        = 5
	RX_DR        = 6
	RX_P_NO_MASK = 0x0E
	// RxFIFOEmpty is the value of the RX_P_NO field when the RX FIFO is empty.
	RxFIFOEmpty = 7
)

// OBSERVE_TX field positions.
const (
	ARC_CNT  = 0 // 4 bits.
	PLOS_CNT = 4 // 4 bits.
)

// FIFO_STATUS bits.
const (
	RX_EMPTY    = 0
	RX_FULL     = 1
	TX_EMPTY    = 4
	FIFO_TXFULL = 5 // TX_FULL in FIFO_STATUS, renamed to not collide with STATUS.TX_FULL.
	TX_REUSE    = 6
)

// FEATURE bits.
const (
	EN_DYN_ACK = 0
	EN_ACK_PAY = 1
	EN_DPL     = 2
)

// Chip limits.
const (
	NumPipes          = 6
	MaxPayloadSize    = 32
	MinAddressWidth   = 3
	MaxAddressWidth   = 5
	MaxChannel        = 127
	FIFODepth         = 3
	ClearAllIRQ       = 1<<RX_DR | 1<<TX_DS | 1<<MAX_RT
	StatusWriteAll    = 0x7F
	AllPipes          = 0x3F
	SETUP_RETR_MAX    = 0xFF
	DefaultAddrWidth  = 5
	defaultRxAddrByte = 0xE7
)

// DefaultAddressP0 is the reset value of RX_ADDR_P0 and TX_ADDR. Pipes
// without an explicit address keep the chip's reset address.
var DefaultAddressP0 = [MaxAddressWidth]byte{defaultRxAddrByte, defaultRxAddrByte, defaultRxAddrByte, defaultRxAddrByte, defaultRxAddrByte}

// RxAddr returns the RX_ADDR_Px register address of pipe pn.
func RxAddr(pn int) Addr { return RX_ADDR_P0 + Addr(pn) }

// RxPW returns the RX_PW_Px register address of pipe pn.
func RxPW(pn int) Addr { return RX_PW_P0 + Addr(pn) }

// IsAddress reports whether the register holds a multi-byte pipe address.
func (a Addr) IsAddress() bool { return a >= RX_ADDR_P0 && a <= TX_ADDR }

// Width returns the number of bytes held by the register given the
// configured address width aw. aw is clamped to [3,5].
func Width(a Addr, aw int) int {
	if !a.IsAddress() {
		return 1
	}
	if aw < MinAddressWidth {
		aw = MinAddressWidth
	} else if aw > MaxAddressWidth {
		aw = MaxAddressWidth
	}
	return aw
}

// String returns the register mnemonic.
func (a Addr) String() string {
	if int(a) < len(names) && names[a] != "" {
		return names[a]
	}
	return "REG(" + hex8(uint8(a)) + ")"
}

var names = [...]string{
	CONFIG:      "CONFIG",
	EN_AA:       "EN_AA",
	EN_RXADDR:   "EN_RXADDR",
	SETUP_AW:    "SETUP_AW",
	SETUP_RETR:  "SETUP_RETR",
	RF_CH:       "RF_CH",
	RF_SETUP:    "RF_SETUP",
	STATUS:      "STATUS",
	OBSERVE_TX:  "OBSERVE_TX",
	RPD:         "RPD",
	RX_ADDR_P0:  "RX_ADDR_P0",
	RX_ADDR_P1:  "RX_ADDR_P1",
	RX_ADDR_P2:  "RX_ADDR_P2",
	RX_ADDR_P3:  "RX_ADDR_P3",
	RX_ADDR_P4:  "RX_ADDR_P4",
	RX_ADDR_P5:  "RX_ADDR_P5",
	TX_ADDR:     "TX_ADDR",
	RX_PW_P0:    "RX_PW_P0",
	RX_PW_P1:    "RX_PW_P1",
	RX_PW_P2:    "RX_PW_P2",
	RX_PW_P3:    "RX_PW_P3",
	RX_PW_P4:    "RX_PW_P4",
	RX_PW_P5:    "RX_PW_P5",
	FIFO_STATUS: "FIFO_STATUS",
	DYNPD:       "DYNPD",
	FEATURE:     "FEATURE",
}

// Known returns all documented registers in ascending address order.
func Known() []Addr {
	known := make([]Addr, 0, len(names))
	for i, name := range names {
		if name != "" {
			known = append(known, Addr(i))
		}
	}
	return known
}

// String returns the command mnemonic. Register access commands
// include the register name and W_ACK_PAYLOAD includes the pipe.
func (c Cmd) String() string {
	switch {
	case c&0xE0 == R_REGISTER:
		return "R_REGISTER(" + Addr(c&AddrMask).String() + ")"
	case c&0xE0 == W_REGISTER:
		return "W_REGISTER(" + Addr(c&AddrMask).String() + ")"
	case c&^7 == W_ACK_PAYLOAD && c&7 < NumPipes:
		return "W_ACK_PAYLOAD(P" + string(rune('0'+c&7)) + ")"
	}
	switch c {
	case R_RX_PL_WID:
		return "R_RX_PL_WID"
	case R_RX_PAYLOAD:
		return "R_RX_PAYLOAD"
	case W_TX_PAYLOAD:
		return "W_TX_PAYLOAD"
	case W_TX_PAYLOAD_NOACK:
		return "W_TX_PAYLOAD_NOACK"
	case FLUSH_TX:
		return "FLUSH_TX"
	case FLUSH_RX:
		return "FLUSH_RX"
	case REUSE_TX_PL:
		return "REUSE_TX_PL"
	case NOP:
		return "NOP"
	}
	return "CMD(" + hex8(uint8(c)) + ")"
}

func hex8(b uint8) string {
	const digits = "0123456789abcdef"
	return "0x" + string([]byte{digits[b>>4], digits[b&0xf]})
}
