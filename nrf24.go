// Package nrf24 implements a receive driver for the Nordic nRF24L01(+)
// 2.4GHz transceiver attached over SPI.
//
// A Device is brought into primary receiver mode by New, after which
// the application polls Read to drain the chip's RX FIFO:
//
//	dev, err := nrf24.New(bus, nrf24.Config{
//		AddressWidth: 5,
//		Pipes: []nrf24.Pipe{
//			nrf24.FixedPipe(4).WithAddress(0x9a, 0x78, 0x56, 0x34, 0x12),
//			nrf24.DynamicPipe(),
//		},
//		Channel:  2,
//		CRCBytes: 1,
//	})
//	...
//	rx, err := dev.Read()
//	for _, pkt := range rx.Packets {
//		fmt.Println(pkt.Pipe, pkt.Payload.Bytes())
//	}
//
// Multi-byte register values (pipe addresses) are passed to and returned by
// the Device most significant byte first. The Device reverses them so that
// the least significant byte is clocked out first as the chip expects.
package nrf24

// Transport is the SPI link to the transceiver. Chip select framing of
// each transaction is the Transport's responsibility.
type Transport interface {
	// Transfer clocks out w and returns the first n bytes clocked in
	// during the same transaction. If n > len(w) the transaction is
	// extended with zero bytes so that n bytes are clocked in.
	Transfer(w []byte, n int) ([]byte, error)
	// SetCE drives the chip enable line. CE high activates the receiver
	// when the chip is in PRX mode.
	SetCE(high bool) error
}
