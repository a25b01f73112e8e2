package postgres

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestOutboxRepositoryIntegration_EnqueuePull(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue first message: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated message id")
	}

	second, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.status_changed",
		Payload:       []byte(`{"order_id":"order-1","status":"PAID"}`),
	})
	if err != nil {
		t.Fatalf("enqueue second message: %v", err)
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatal("expected FIFO order of pending messages")
	}
	if pending[0].EventType != "order.created" {
		t.Fatalf("unexpected event type: %s", pending[0].EventType)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("outbox stats: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending in stats, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp")
	}
}

func TestOutboxRepositoryIntegration_MarkSent(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-2",
		EventType:     "order.created",
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("enqueue message: %v", err)
	}

	if err := repo.MarkSent(ctx, msg.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog after mark sent, got %d", len(pending))
	}

	if err := repo.MarkSent(ctx, "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatal("expected error for unknown message id")
	}

	// Повторная пометка уже обработанного сообщения не проходит.
	if err := repo.MarkSent(ctx, msg.ID); err == nil {
		t.Fatal("expected error when marking a non-pending message")
	}
}

func TestOutboxRepositoryIntegration_MarkFailedKeepsMessageOutOfBacklog(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-3",
		EventType:     "order.created",
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("enqueue message: %v", err)
	}

	if err := repo.MarkFailed(ctx, msg.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed message must leave pending backlog, got %d", len(pending))
	}
}
