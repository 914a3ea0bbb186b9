package forward

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

// MQTTConfig configures an MQTT sink.
type MQTTConfig struct {
	// Addr is the broker TCP address, i.e. "localhost:1883".
	Addr     string
	ClientID string
	// Prefix is prepended to every topic, see Topic.
	Prefix string
	// Timeout bounds connecting and every publish. Zero selects 5 seconds.
	Timeout time.Duration
	Logger  *slog.Logger
}

// MQTT publishes the raw payload of every message with QoS0 to the topic
// returned by Topic. A lost connection is redialed on the next Forward.
type MQTT struct {
	cfg     MQTTConfig
	client  *mqtt.Client
	conn    net.Conn
	flags   mqtt.PacketFlags
	varconn mqtt.VariablesConnect
}

var _ Sink = (*MQTT)(nil)

// DialMQTT connects to the broker described by cfg.
func DialMQTT(ctx context.Context, cfg MQTTConfig) (*MQTT, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(discard{})
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return nil, err
	}
	m := &MQTT{
		cfg:   cfg,
		flags: flags,
		client: mqtt.NewClient(mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
			OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
				return nil
			},
		}),
	}
	m.varconn.SetDefaultMQTT([]byte(cfg.ClientID))
	err = m.connect(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MQTT) connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.cfg.Addr)
	if err != nil {
		return err
	}
	m.cfg.Logger.Info("mqtt:connecting", slog.String("addr", m.cfg.Addr))
	err = m.client.Connect(ctx, conn, &m.varconn)
	if err != nil {
		conn.Close()
		return err
	}
	m.conn = conn
	m.cfg.Logger.Info("mqtt:connected", slog.String("addr", m.cfg.Addr))
	return nil
}

// Forward implements Sink.
func (m *MQTT) Forward(ctx context.Context, msg Message) error {
	if !m.client.IsConnected() {
		m.cfg.Logger.Warn("mqtt:reconnect", slog.Any("reason", m.client.Err()))
		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		err := m.connect(ctx)
		if err != nil {
			return err
		}
	}
	m.conn.SetDeadline(time.Now().Add(m.cfg.Timeout))
	vp := mqtt.VariablesPublish{TopicName: []byte(Topic(m.cfg.Prefix, msg.Pipe))}
	return m.client.PublishPayload(m.flags, vp, msg.Payload)
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.conn == nil {
		return nil
	}
	var err error
	if m.client.IsConnected() {
		err = m.client.Disconnect(errors.New("nrf24 gateway closing"))
	}
	return errors.Join(err, m.conn.Close())
}
