package kafka

import "time"

// EventType определяет тип события жизненного цикла заказа.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// Topics сервиса заказов.
const (
	TopicOrderEvents     = "orders.order.events"
	TopicDeadLetterQueue = "orders.dlq"
)

// Kafka headers, которыми DLQ-паблишер помечает недоставленные
// сообщения. По ним реобработчик понимает, откуда пришло событие
// и сколько попыток доставки уже сделано.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent — payload события заказа, попадающий в outbox и далее
// в envelope Kafka-сообщения.
type OrderEvent struct {
	EventType        EventType         `json:"event_type"`
	OrderID          string            `json:"order_id"`
	Status           string            `json:"status"`
	TotalAmountMinor int64             `json:"total_amount_minor"`
	TotalItems       int32             `json:"total_items"`
	Timestamp        time.Time         `json:"timestamp"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт событие заказа с текущим UTC-временем.
func NewOrderEvent(eventType EventType, orderID, status string, amountMinor int64, totalItems int32, metadata map[string]string) *OrderEvent {
	return &OrderEvent{
		EventType:        eventType,
		OrderID:          orderID,
		Status:           status,
		TotalAmountMinor: amountMinor,
		TotalItems:       totalItems,
		Timestamp:        time.Now().UTC(),
		Metadata:         metadata,
	}
}
