package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soypat/nrf24"
)

const shellHelp = `Commands:
	c|ch N       set RF channel
	x            clear STATUS interrupt flags
	r            print register map
	s            print STATUS and FIFO_STATUS
	f            flush RX FIFO
	a PIPE HEX   queue acknowledgement payload on pipe
	q            quit`

type shell struct {
	dev  *nrf24.Device
	out  io.Writer
	poll time.Duration
}

// run prints the register map and then polls the receiver every sh.poll
// while waiting for commands from in. It returns nil on EOF or quit.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	if sh.poll <= 0 {
		return errors.New("poll period must be positive")
	}
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	sh.printRegisterMap()
	sh.println("Waiting for input...")
	ticker := time.NewTicker(sh.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				sh.println("Exiting...")
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if sh.exec(line) {
				sh.println("Exiting...")
				return nil
			}
			sh.println("Waiting for input...")
		case <-ticker.C:
			sh.readPrintOutput()
		}
	}
}

// exec runs a single command line and reports whether the shell should exit.
func (sh *shell) exec(line string) (quit bool) {
	words := strings.Fields(strings.ToLower(line))
	if len(words) == 0 {
		sh.printRegisterMap()
		return false
	}
	var err error
	switch words[0] {
	case "c", "ch":
		if len(words) < 2 {
			sh.println("usage: c CHANNEL")
			return false
		}
		var ch int
		ch, err = strconv.Atoi(words[1])
		if err != nil {
			break
		}
		err = sh.dev.SetChannel(ch)
		if err == nil {
			sh.printf("Setting channel to %d...\n", sh.dev.Channel())
		}
	case "x":
		sh.println("Clearing STATUS...")
		err = sh.dev.ClearStatus()
	case "r":
		sh.printRegisterMap()
	case "s":
		stat, err2 := sh.dev.Status()
		fifo, err3 := sh.dev.FIFOStatus()
		err = errors.Join(err2, err3)
		if err == nil {
			sh.printf("STATUS %#02x %s\nFIFO   %#02x %s\n", uint8(stat), stat, uint8(fifo), fifo)
		}
	case "f":
		sh.println("Flushing RX FIFO...")
		err = sh.dev.ClearRx()
	case "a":
		err = sh.queueAck(words[1:])
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		sh.println(shellHelp)
	default:
		sh.println("Unknown command")
	}
	if err != nil {
		sh.printf("error: %v\n", err)
	}
	return false
}

func (sh *shell) queueAck(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: a PIPE HEX")
	}
	pn, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(args[1])
	if err != nil {
		return err
	}
	sh.printf("Queueing %d byte ack payload on pipe %d...\n", len(data), pn)
	return sh.dev.QueueAckPacket(pn, data)
}

func (sh *shell) printRegisterMap() {
	regs, err := sh.dev.RegisterMap()
	for _, r := range regs {
		sh.println(r.String())
	}
	if err != nil {
		sh.printf("error: %v\n", err)
	}
}

func (sh *shell) readPrintOutput() {
	rx, err := sh.dev.Read()
	for _, p := range rx.Packets {
		sh.printf("Got data on pipe %d [%s]\n", p.Pipe, p.Payload)
	}
	if rx.Anomaly != nil {
		sh.printf("anomaly: %v\n", rx.Anomaly)
	}
	if err != nil {
		sh.printf("error: %v\n", err)
	}
}

func (sh *shell) println(s string) { fmt.Fprintln(sh.out, s) }

func (sh *shell) printf(format string, args ...any) { fmt.Fprintf(sh.out, format, args...) }
