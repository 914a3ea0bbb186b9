package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"

	"github.com/soypat/nrf24/reg"
)

type BusCtl struct {
	// Keep multi-byte data in wire order (least significant byte first).
	Raw       bool
	OmitNOP   bool
	OmitRead  bool
	OmitWrite bool
	// Collapse consecutive identical transactions into one line.
	Collapse bool
	// Timings, if set, receives the start time of each output line.
	Timings io.Writer
}

func main() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "nrfanalyze - Decode Saleae binary digital captures of nRF24L01 SPI transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	csn := flag.String("f-csn", "digital_0.bin", "Input filename: SPI CSN data.")
	sck := flag.String("f-sck", "digital_1.bin", "Input filename: SPI SCK data.")
	mosi := flag.String("f-mosi", "digital_2.bin", "Input filename: SPI MOSI data.")
	miso := flag.String("f-miso", "digital_3.bin", "Input filename: SPI MISO data.")
	output := flag.String("o-cmd", "commands.txt", "Output filename of nRF24 command transactions.")
	timingsOutput := flag.String("o-time", "", "Output timing data to a file corresponding to output command history line-by-line.")
	var bus BusCtl
	flag.BoolVar(&bus.Raw, "raw", false, "Print data in wire order instead of most significant byte first.")
	flag.BoolVar(&bus.OmitNOP, "omit-nop", false, "Omit NOP status polls in output.")
	flag.BoolVar(&bus.OmitRead, "omit-read", false, "Omit read commands in output.")
	flag.BoolVar(&bus.OmitWrite, "omit-write", false, "Omit write commands in output.")
	flag.BoolVar(&bus.Collapse, "collapse", true, "Collapse repeated identical transactions.")
	flag.Parse()
	if bus.OmitRead && bus.OmitWrite {
		log.Fatal("cannot omit both read and write commands")
	}
	start := time.Now()
	txs, err := scanFiles(*sck, *csn, *mosi, *miso)
	if err != nil {
		log.Fatal(err)
	}
	fp, err := os.Create(*output)
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()
	if *timingsOutput != "" {
		timings, err := os.Create(*timingsOutput)
		if err != nil {
			log.Fatal(err)
		}
		defer timings.Close()
		bus.Timings = timings
	}
	n, err := bus.Write(fp, txs)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("finished", slog.Int("transactions", len(txs)), slog.Int("lines", n), slog.Duration("took", time.Since(start)))
}

// frame is a single CSN framed transaction.
type frame struct {
	MOSI, MISO []byte
	Start      float64
}

func scanFiles(fsck, fcsn, fmosi, fmiso string) ([]frame, error) {
	var files [4]*saleae.DigitalFile
	for i, name := range []string{fsck, fcsn, fmosi, fmiso} {
		df, err := opendigital(name)
		if err != nil {
			return nil, err
		}
		files[i] = df
	}
	spi := analyzers.SPI{}
	txs, _ := spi.Scan(files[0], files[1], files[2], files[3])
	frames := make([]frame, len(txs))
	for i, tx := range txs {
		frames[i] = frame{MOSI: tx.SDO, MISO: tx.SDI, Start: tx.StartTime()}
	}
	return frames, nil
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return saleae.ReadDigitalFile(fp)
}

// Write decodes txs and writes one line per transaction to w. It returns
// the number of lines written.
func (bus *BusCtl) Write(w io.Writer, txs []frame) (lines int, err error) {
	for _, tx := range bus.process(txs) {
		if bus.omit(tx) {
			continue
		}
		_, err = fmt.Fprintln(w, tx.String())
		if err != nil {
			return lines, err
		}
		if bus.Timings != nil {
			fmt.Fprintf(bus.Timings, "t=%f\tdata=%#x\n", tx.Start, tx.Data)
		}
		lines++
	}
	return lines, nil
}

func (bus *BusCtl) omit(tx nrftx) bool {
	return (bus.OmitNOP && tx.Cmd == reg.NOP) ||
		(bus.OmitRead && !isWrite(tx.Cmd)) ||
		(bus.OmitWrite && isWrite(tx.Cmd))
}

func (bus *BusCtl) process(txs []frame) (out []nrftx) {
	for i := 0; i < len(txs); i++ {
		tx, ok := bus.decode(txs[i].MOSI, txs[i].MISO)
		if !ok {
			continue
		}
		tx.Start = txs[i].Start
		tx.Num = 1
		for bus.Collapse && i+1 < len(txs) {
			next, ok := bus.decode(txs[i+1].MOSI, txs[i+1].MISO)
			if !ok || next.Cmd != tx.Cmd || next.Status != tx.Status || !bytes.Equal(next.Data, tx.Data) {
				break
			}
			tx.Num++
			i++
		}
		out = append(out, tx)
	}
	return out
}

type nrftx struct {
	Num    int
	Cmd    reg.Cmd
	Status reg.Status
	// Data clocked out by the host for writes and by the chip for reads.
	Data  []byte
	Start float64
}

func (tx nrftx) String() string {
	return fmt.Sprintf("cmd×%2d %-26s stat=[%s] data=%x", tx.Num, tx.Cmd.String(), tx.Status.String(), tx.Data)
}

// decode interprets a single CSN framed transaction. mosi and miso hold
// the bytes clocked by the host and the chip.
func (bus *BusCtl) decode(mosi, miso []byte) (tx nrftx, ok bool) {
	if len(mosi) == 0 {
		return tx, false
	}
	tx.Cmd = reg.Cmd(mosi[0])
	if len(miso) > 0 {
		tx.Status = reg.Status(miso[0])
	}
	src := miso
	if isWrite(tx.Cmd) {
		src = mosi
	}
	if len(src) > 1 {
		tx.Data = append([]byte{}, src[1:]...)
	}
	if !bus.Raw {
		for i, j := 0, len(tx.Data)-1; i < j; i, j = i+1, j-1 {
			tx.Data[i], tx.Data[j] = tx.Data[j], tx.Data[i]
		}
	}
	return tx, true
}

func isWrite(c reg.Cmd) bool {
	switch {
	case c&0xE0 == reg.W_REGISTER:
		return true
	case c&^7 == reg.W_ACK_PAYLOAD:
		return true
	}
	return c == reg.W_TX_PAYLOAD || c == reg.W_TX_PAYLOAD_NOACK
}
