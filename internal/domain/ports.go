package domain

import (
	"context"
	"time"
)

// ProductValidator описывает взаимодействие с внешним сервисом продуктов.
type ProductValidator interface {
	// Validate проверяет список идентификаторов товаров и возвращает
	// актуальные цену и имя для каждого из них. Если хотя бы один
	// идентификатор неизвестен каталогу, весь батч считается
	// невалидным и возвращается *ProductValidationError.
	Validate(ctx context.Context, ids []string) (ProductSet, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// DeadLetterPublisher принимает события, которые не удалось доставить.
// attempts — сколько попыток публикации было сделано, cause — последняя
// ошибка доставки; реализация обязана сохранить и то и другое рядом
// с исходным событием.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, event OutboxMessage, attempts int, cause error) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
