package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	producer, mp := newTestProducer(t)

	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(pm *sarama.ProducerMessage) error {
		if pm.Topic != TopicOrderEvents {
			t.Errorf("unexpected topic: %s", pm.Topic)
		}
		key, _ := pm.Key.Encode()
		if string(key) != "order-1" {
			t.Errorf("expected aggregate id as partition key, got %s", key)
		}

		raw, _ := pm.Value.Encode()
		var envelope struct {
			ID            string          `json:"id"`
			AggregateType string          `json:"aggregate_type"`
			EventType     string          `json:"event_type"`
			Payload       json.RawMessage `json:"payload"`
			PublishedAt   string          `json:"published_at"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Errorf("envelope is not valid JSON: %v", err)
			return nil
		}
		if envelope.ID != "msg-1" || envelope.AggregateType != "order" {
			t.Errorf("unexpected envelope identity: %+v", envelope)
		}
		if envelope.EventType != "order.created" {
			t.Errorf("unexpected event type: %s", envelope.EventType)
		}
		if string(envelope.Payload) != `{"order_id":"order-1"}` {
			t.Errorf("payload must pass through untouched, got %s", envelope.Payload)
		}
		if envelope.PublishedAt == "" {
			t.Error("expected published_at to be set")
		}
		return nil
	})

	publisher := NewOutboxPublisher(producer, "")
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "msg-1",
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestOutboxPublisher_NotInitialized(t *testing.T) {
	publisher := NewOutboxPublisher(nil, "")

	err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "msg-1"})
	if err == nil {
		t.Fatal("expected error for uninitialized publisher")
	}
}

func TestDLQPublisher_PublishAttachesFailureHeaders(t *testing.T) {
	producer, mp := newTestProducer(t)

	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(pm *sarama.ProducerMessage) error {
		if pm.Topic != TopicDeadLetterQueue {
			t.Errorf("expected DLQ topic, got %s", pm.Topic)
		}

		headers := map[string]string{}
		for _, h := range pm.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		if headers[HeaderRetryCount] != "3" {
			t.Errorf("unexpected retry count: %q", headers[HeaderRetryCount])
		}
		if headers[HeaderOriginalTopic] != TopicOrderEvents {
			t.Errorf("unexpected original topic: %q", headers[HeaderOriginalTopic])
		}
		if headers[HeaderErrorMessage] != "broker unavailable" {
			t.Errorf("unexpected error message: %q", headers[HeaderErrorMessage])
		}
		if headers[HeaderFailedAt] == "" {
			t.Error("expected failed-at header")
		}

		// Payload остаётся исходным событием, без вложенного конверта.
		raw, _ := pm.Value.Encode()
		var envelope struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Errorf("dlq envelope is not valid JSON: %v", err)
			return nil
		}
		if string(envelope.Payload) != `{"order_id":"order-2"}` {
			t.Errorf("unexpected dlq payload: %s", envelope.Payload)
		}
		return nil
	})

	publisher := NewDLQPublisher(producer, TopicOrderEvents)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "msg-2",
		AggregateType: "order",
		AggregateID:   "order-2",
		EventType:     "order.status_changed",
		Payload:       []byte(`{"order_id":"order-2"}`),
	}, 3, errors.New("broker unavailable"))
	if err != nil {
		t.Fatalf("dlq publish failed: %v", err)
	}
}

func TestDLQPublisher_NotInitialized(t *testing.T) {
	publisher := NewDLQPublisher(nil, "")

	err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "msg-1"}, 1, errors.New("x"))
	if err == nil {
		t.Fatal("expected error for uninitialized dlq publisher")
	}
}
