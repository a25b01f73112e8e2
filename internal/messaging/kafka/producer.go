package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Message — единица публикации в Kafka. Headers опциональны и
// переносят метаданные доставки (retry-счётчики, исходный topic).
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Producer публикует сообщения через идемпотентный sync-producer.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

// NewProducer создаёт Kafka producer. Идемпотентность включена,
// поэтому MaxOpenRequests ограничен единицей.
func NewProducer(brokers []string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		sync:   sp,
		logger: log.WithField("component", "kafka-producer"),
	}, nil
}

// Publish отправляет одно сообщение. sarama.SyncProducer не принимает
// context, поэтому отмена проверяется до блокирующего SendMessage.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic:     msg.Topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(msg.Value),
		Timestamp: time.Now(),
		Headers:   encodeHeaders(msg.Headers),
	}

	partition, offset, err := p.sync.SendMessage(pm)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": msg.Topic,
			"key":   msg.Key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("send message to %s: %w", msg.Topic, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     msg.Topic,
		"key":       msg.Key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

func encodeHeaders(headers map[string]string) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	encoded := make([]sarama.RecordHeader, 0, len(headers))
	for key, value := range headers {
		encoded = append(encoded, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}
	return encoded
}
