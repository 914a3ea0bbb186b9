package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/soypat/nrf24"
	"github.com/soypat/nrf24/internal/forward"
	"github.com/soypat/nrf24/internal/pipeflag"
)

type gateConfig struct {
	spi      nrf24.SPIConfig
	radio    nrf24.Config
	poll     time.Duration
	mqtt     forward.MQTTConfig
	redis    string
	redisCh  string
	redisKey string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "nrfgate - Forward packets received by an nRF24L01 to MQTT and/or Redis.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	gc := gateConfig{
		spi:   nrf24.SPIConfig{Freq: physic.MegaHertz},
		radio: nrf24.DefaultConfig(),
	}
	flag.StringVar(&gc.spi.Port, "spi", "", "SPI port name. Empty selects the first available port.")
	flag.StringVar(&gc.spi.CE, "ce", "GPIO25", "Chip enable GPIO name.")
	flag.Var(&gc.spi.Freq, "freq", "SPI clock frequency.")
	var pipes pipeflag.Pipes
	flag.IntVar(&gc.radio.Channel, "c", gc.radio.Channel, "RF channel [0,127].")
	flag.IntVar(&gc.radio.AddressWidth, "aw", gc.radio.AddressWidth, "Address width in bytes [3,5].")
	speed := flag.Uint("speed", uint(gc.radio.Speed), "Data rate: 0=250kbps 1=1Mbps 2=2Mbps.")
	flag.IntVar(&gc.radio.CRCBytes, "crc", gc.radio.CRCBytes, "CRC length in bytes [0,2].")
	flag.BoolVar(&gc.radio.StrictPipeMask, "strict", false, "Enable only the configured pipes in EN_RXADDR and EN_AA.")
	flag.Var(&pipes, "pipe", "Pipe configuration [ADDRHEX:]SIZE|dyn|off. Repeat for pipes 0 to 5. (default 4)")
	flag.DurationVar(&gc.poll, "poll", 50*time.Millisecond, "RX FIFO poll period.")
	flag.StringVar(&gc.mqtt.Addr, "mqtt", "", "MQTT broker address, i.e. localhost:1883. Empty disables MQTT.")
	flag.StringVar(&gc.mqtt.ClientID, "mqtt-id", "nrf24-gateway", "MQTT client identifier.")
	flag.StringVar(&gc.mqtt.Prefix, "mqtt-prefix", "nrf24", "MQTT topic prefix.")
	flag.StringVar(&gc.redis, "redis", "", "Redis server address, i.e. localhost:6379. Empty disables Redis.")
	flag.StringVar(&gc.redisCh, "redis-channel", "nrf24", "Redis channel packets are published to. Empty disables publishing.")
	flag.StringVar(&gc.redisKey, "redis-prefix", "nrf24", "Redis key prefix of the last payload of each pipe.")
	var level slog.Level
	flag.TextVar(&level, "loglevel", slog.LevelInfo, "Log level. DEBUG-1 logs every bus transaction.")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gc.radio.Speed = nrf24.Speed(*speed)
	gc.radio.Logger = logger
	gc.mqtt.Logger = logger
	if len(pipes) > 0 {
		gc.radio.Pipes = pipes
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := run(ctx, gc, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("nrfgate", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, gc gateConfig, logger *slog.Logger) (err error) {
	var sinks []forward.Sink
	defer func() {
		err = errors.Join(err, forward.CloseAll(sinks...))
	}()
	if gc.mqtt.Addr != "" {
		m, err := forward.DialMQTT(ctx, gc.mqtt)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		sinks = append(sinks, m)
	}
	if gc.redis != "" {
		r := forward.NewRedis(gc.redis, gc.redisCh, gc.redisKey)
		sinks = append(sinks, r)
		if err := r.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if len(sinks) == 0 {
		logger.Warn("no -mqtt or -redis sink configured, packets are only logged at DEBUG level")
	}

	bus, err := nrf24.OpenSPI(gc.spi)
	if err != nil {
		return fmt.Errorf("opening SPI: %w", err)
	}
	defer func() {
		err = errors.Join(err, bus.Close())
	}()
	dev, err := nrf24.New(bus, gc.radio)
	if err != nil {
		return fmt.Errorf("configuring transceiver: %w", err)
	}
	logger.Info("listening", slog.Int("channel", dev.Channel()), slog.Int("pipes", len(dev.Pipes())))
	return forward.Pump(ctx, dev, gc.poll, logger, sinks...)
}
