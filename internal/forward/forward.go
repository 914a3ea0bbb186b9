// Package forward publishes packets drained from an nRF24L01 receiver to
// external brokers.
package forward

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/soypat/nrf24"
)

// ErrPollInterval is returned by Pump for a non-positive poll interval.
var ErrPollInterval = errors.New("forward: poll interval must be positive")

// Message is a received packet ready for publishing.
type Message struct {
	Pipe    int
	Payload []byte
	Time    time.Time
}

// Sink publishes messages. Forward must not retain m.Payload.
type Sink interface {
	Forward(ctx context.Context, m Message) error
	Close() error
}

// Receiver is the subset of nrf24.Device used by Pump.
type Receiver interface {
	Read() (nrf24.Rx, error)
}

// Topic returns the topic or key packets received on pipe are published to.
func Topic(prefix string, pipe int) string {
	return prefix + "/pipe/" + strconv.Itoa(pipe)
}

// Encode renders m as a single line of text.
func Encode(m Message) []byte {
	b := make([]byte, 0, 32+2*len(m.Payload))
	b = append(b, "pipe="...)
	b = strconv.AppendInt(b, int64(m.Pipe), 10)
	b = append(b, " payload="...)
	b = append(b, hex.EncodeToString(m.Payload)...)
	if !m.Time.IsZero() {
		b = append(b, " t="...)
		b = m.Time.UTC().AppendFormat(b, time.RFC3339Nano)
	}
	return b
}

// Pump polls rcv every interval and forwards every drained packet to all
// sinks until ctx is done. Sink errors are logged and do not stop the pump.
// A corrupt RX FIFO is logged and polling continues since the driver already
// flushed it. Any other read error stops the pump and is returned.
func Pump(ctx context.Context, rcv Receiver, interval time.Duration, logger *slog.Logger, sinks ...Sink) error {
	if interval <= 0 {
		return ErrPollInterval
	}
	if logger == nil {
		logger = slog.New(discard{})
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		rx, err := rcv.Read()
		if errors.Is(err, nrf24.ErrCorruptFIFO) {
			logger.Warn("pump:rx flushed", slog.String("err", err.Error()))
			continue
		}
		now := time.Now()
		for _, pkt := range rx.Packets {
			m := Message{Pipe: pkt.Pipe, Payload: pkt.Payload.Bytes(), Time: now}
			logger.Debug("pump:packet", slog.Int("pipe", m.Pipe), slog.String("payload", pkt.Payload.String()))
			for _, sink := range sinks {
				ferr := sink.Forward(ctx, m)
				if ferr != nil {
					logger.Error("pump:forward", slog.Int("pipe", m.Pipe), slog.String("err", ferr.Error()))
				}
			}
		}
		if err != nil {
			return err
		}
		if rx.Anomaly != nil {
			logger.Warn("pump:anomaly", slog.String("err", rx.Anomaly.Error()))
		}
	}
}

// CloseAll closes every sink and joins the errors.
func CloseAll(sinks ...Sink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discard) WithGroup(string) slog.Handler           { return d }
