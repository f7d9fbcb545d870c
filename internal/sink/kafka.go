package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"rackplan/internal/domain"
)

// messageWriter is the subset of *kafka.Writer the sink needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka appends every snapshot to a topic, keyed by sequence number
type Kafka struct {
	writer messageWriter
	topic  string
}

// kafkaBatchTimeout caps how long a write waits for a batch to fill. Emit
// runs under the planner lock and sends one message at a time.
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaWriter builds a writer over a broker list that flushes every
// message as soon as it is written
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              1,
		BatchTimeout:           kafkaBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafka creates a sink writing to topic
func NewKafka(writer messageWriter, topic string) *Kafka {
	if topic == "" {
		topic = "rackplan.snapshots"
	}
	return &Kafka{writer: writer, topic: topic}
}

// Name implements Sink
func (k *Kafka) Name() string { return "kafka" }

// Emit implements Sink
func (k *Kafka) Emit(ctx context.Context, snap domain.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(strconv.FormatUint(snap.Seq, 10)),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
