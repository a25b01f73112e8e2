package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// eventEnvelope — wire-формат события: outbox-сообщение плюс момент
// публикации. Payload проносится как есть, без повторного кодирования.
type eventEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	value, err := marshalEnvelope(event)
	if err != nil {
		return err
	}

	return p.producer.Publish(ctx, Message{
		Topic: p.topic,
		Key:   partitionKey(event),
		Value: value,
	})
}

// DLQPublisher отправляет недоставленные события в dead letter queue.
// Метаданные о сбое уходят в Kafka headers, payload остаётся исходным:
// реобработка DLQ не должна разворачивать вложенные конверты.
type DLQPublisher struct {
	producer    *Producer
	sourceTopic string
}

// NewDLQPublisher создаёт DLQ-паблишер. sourceTopic — topic, в который
// событие не удалось доставить; он попадает в header x-original-topic.
func NewDLQPublisher(producer *Producer, sourceTopic string) domain.DeadLetterPublisher {
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	return &DLQPublisher{
		producer:    producer,
		sourceTopic: sourceTopic,
	}
}

func (p *DLQPublisher) Publish(ctx context.Context, event domain.OutboxMessage, attempts int, cause error) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	value, err := marshalEnvelope(event)
	if err != nil {
		return err
	}

	headers := map[string]string{
		HeaderRetryCount:    strconv.Itoa(attempts),
		HeaderOriginalTopic: p.sourceTopic,
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if cause != nil {
		headers[HeaderErrorMessage] = cause.Error()
	}

	return p.producer.Publish(ctx, Message{
		Topic:   TopicDeadLetterQueue,
		Key:     partitionKey(event),
		Value:   value,
		Headers: headers,
	})
}

func marshalEnvelope(event domain.OutboxMessage) ([]byte, error) {
	value, err := json.Marshal(eventEnvelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return value, nil
}

// partitionKey использует id агрегата, чтобы события одного заказа
// держались в одной партиции и сохраняли порядок.
func partitionKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

var (
	_ domain.OutboxPublisher     = (*OutboxTopicPublisher)(nil)
	_ domain.DeadLetterPublisher = (*DLQPublisher)(nil)
)
