package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/soypat/nrf24"
	"github.com/soypat/nrf24/internal/pipeflag"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "nrfshell - Receive nRF24L01 packets and inspect the transceiver interactively.\n\tUsage:\n")
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), shellHelp)
	}
	spiCfg := nrf24.SPIConfig{Freq: physic.MegaHertz}
	flag.StringVar(&spiCfg.Port, "spi", "", "SPI port name. Empty selects the first available port.")
	flag.StringVar(&spiCfg.CE, "ce", "GPIO25", "Chip enable GPIO name.")
	flag.Var(&spiCfg.Freq, "freq", "SPI clock frequency.")
	cfg := nrf24.DefaultConfig()
	var pipes pipeflag.Pipes
	flag.IntVar(&cfg.Channel, "c", 0x04, "RF channel [0,127].")
	flag.IntVar(&cfg.AddressWidth, "aw", cfg.AddressWidth, "Address width in bytes [3,5].")
	speed := flag.Uint("speed", uint(cfg.Speed), "Data rate: 0=250kbps 1=1Mbps 2=2Mbps.")
	flag.IntVar(&cfg.CRCBytes, "crc", cfg.CRCBytes, "CRC length in bytes [0,2].")
	flag.BoolVar(&cfg.StrictPipeMask, "strict", false, "Enable only the configured pipes in EN_RXADDR and EN_AA.")
	flag.Var(&pipes, "pipe", "Pipe configuration [ADDRHEX:]SIZE|dyn|off. Repeat for pipes 0 to 5. (default 9a78563412:4)")
	poll := flag.Duration("poll", 100*time.Millisecond, "RX FIFO poll period.")
	var level slog.Level
	flag.TextVar(&level, "loglevel", slog.LevelWarn, "Driver log level. DEBUG-1 logs every bus transaction.")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg.Speed = nrf24.Speed(*speed)
	cfg.Logger = logger
	cfg.Pipes = pipes
	if len(pipes) == 0 {
		cfg.Pipes = []nrf24.Pipe{nrf24.FixedPipe(4).WithAddress(0x9a, 0x78, 0x56, 0x34, 0x12)}
	}

	err := run(spiCfg, cfg, *poll)
	if err != nil {
		logger.Error("nrfshell", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(spiCfg nrf24.SPIConfig, cfg nrf24.Config, poll time.Duration) (err error) {
	bus, err := nrf24.OpenSPI(spiCfg)
	if err != nil {
		return fmt.Errorf("opening SPI: %w", err)
	}
	defer func() {
		if cerr := bus.Close(); err == nil {
			err = cerr
		}
	}()
	dev, err := nrf24.New(bus, cfg)
	if err != nil {
		return fmt.Errorf("configuring transceiver: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sh := shell{dev: dev, out: os.Stdout, poll: poll}
	err = sh.run(ctx, os.Stdin)
	if err == context.Canceled {
		err = nil
	}
	return err
}
