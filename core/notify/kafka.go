package notify

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/gestion/core"
	"github.com/relabs-tech/gestion/core/logger"
)

// batchTimeout bounds the time Notify waits for a batch to fill. Notify runs on
// the request path and sends one message at a time.
const batchTimeout = 10 * time.Millisecond

// messageWriter is the part of kafka.Writer used by Kafka
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notifications to a kafka topic. The message key is the
// resource, so all changes of one resource land in the same partition.
type Kafka struct {
	writer messageWriter
}

// NewKafka returns a notifier writing to topic on brokers
func NewKafka(brokers []string, topic string) *Kafka {
	logger.Default().Debugf("kafka notifications enabled: topic %s on %v", topic, brokers)
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
	}}
}

// Notify implements core.Notifier
func (k *Kafka) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(resource),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "resource", Value: []byte(resource)},
			{Key: "operation", Value: []byte(operation)},
		},
	})
}

// Close flushes pending messages and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
