package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"rackplan/internal/domain"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
	mqttMaxQoS         = 2
)

// MQTT errors
var (
	ErrMQTTConnect = errors.New("mqtt: connection failed")
	ErrMQTTPublish = errors.New("mqtt: publish failed")
	ErrMQTTQoS     = errors.New("mqtt: invalid qos")
)

// MQTTConfig configures the MQTT sink
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
	QoS      byte
}

// publisher is the subset of pahomqtt.Client the sink needs
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// MQTT publishes retained snapshot and summary documents under a topic prefix:
// <prefix>/snapshot and <prefix>/summary
type MQTT struct {
	client publisher
	closer func()
	prefix string
	qos    byte
}

// DialMQTT connects to a broker and returns a sink publishing through it
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.QoS > mqttMaxQoS {
		return nil, ErrMQTTQoS
	}
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrMQTTConnect, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMQTTConnect, err)
	}

	m := NewMQTT(client, cfg.Prefix, cfg.QoS)
	m.closer = func() { client.Disconnect(mqttQuiesceMillis) }
	return m, nil
}

// NewMQTT creates a sink over an existing client
func NewMQTT(client publisher, prefix string, qos byte) *MQTT {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "rackplan"
	}
	return &MQTT{client: client, prefix: prefix, qos: qos}
}

// Name implements Sink
func (m *MQTT) Name() string { return "mqtt" }

// SnapshotTopic returns the topic carrying full snapshots
func (m *MQTT) SnapshotTopic() string { return m.prefix + "/snapshot" }

// SummaryTopic returns the topic carrying progress summaries
func (m *MQTT) SummaryTopic() string { return m.prefix + "/summary" }

// Emit implements Sink
func (m *MQTT) Emit(ctx context.Context, snap domain.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := m.publish(ctx, m.SnapshotTopic(), data); err != nil {
		return err
	}

	summary, err := encodeSummary(snap)
	if err != nil {
		return err
	}
	return m.publish(ctx, m.SummaryTopic(), summary)
}

func (m *MQTT) publish(ctx context.Context, topic string, payload []byte) error {
	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	token := m.client.Publish(topic, m.qos, true, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrMQTTPublish, topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMQTTPublish, topic, err)
	}
	return nil
}

// Close disconnects the client when the sink owns it
func (m *MQTT) Close() error {
	if m.closer != nil {
		m.closer()
	}
	return nil
}
