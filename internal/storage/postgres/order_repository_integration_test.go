package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func buildIntegrationOrder() domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	orderID := uuid.NewString()
	return domain.Order{
		ID:               orderID,
		TotalAmountMinor: 2500,
		TotalItems:       3,
		Status:           domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ID: uuid.NewString(), ProductID: "p1", Quantity: 2, PriceMinor: 1000, CreatedAt: now},
			{ID: uuid.NewString(), ProductID: "p2", Quantity: 1, PriceMinor: 500, CreatedAt: now.Add(time.Microsecond)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepositoryIntegration_CreateGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	order := buildIntegrationOrder()
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	stored, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.TotalAmountMinor != 2500 || stored.TotalItems != 3 {
		t.Fatalf("unexpected totals: %d/%d", stored.TotalAmountMinor, stored.TotalItems)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(stored.Items))
	}
	if stored.Items[0].ProductID != "p1" || stored.Items[1].ProductID != "p2" {
		t.Fatalf("expected insertion order of items, got %+v", stored.Items)
	}
	if stored.Items[0].PriceMinor != 1000 {
		t.Fatalf("expected price snapshot 1000, got %d", stored.Items[0].PriceMinor)
	}
}

func TestOrderRepositoryIntegration_CreateDuplicate(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	order := buildIntegrationOrder()
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repo.Create(ctx, order); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestOrderRepositoryIntegration_GetNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	_, err := repo.Get(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepositoryIntegration_ListPagination(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 12; i++ {
		order := buildIntegrationOrder()
		order.CreatedAt = base.Add(time.Duration(i) * time.Second)
		order.UpdatedAt = order.CreatedAt
		if i%2 == 1 {
			order.Status = domain.OrderStatusPaid
		}
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	pending := domain.OrderStatusPending
	page1, total, err := repo.List(ctx, domain.ListFilter{Status: &pending, Page: 1, Limit: 4})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if total != 6 {
		t.Fatalf("expected 6 pending orders, got %d", total)
	}
	if len(page1) != 4 {
		t.Fatalf("expected 4 orders on page 1, got %d", len(page1))
	}

	page2, _, err := repo.List(ctx, domain.ListFilter{Status: &pending, Page: 2, Limit: 4})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("expected 2 orders on page 2, got %d", len(page2))
	}

	seen := make(map[string]bool)
	for _, order := range append(page1, page2...) {
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("status filter leaked order with status %s", order.Status)
		}
		if len(order.Items) != 0 {
			t.Fatal("list view must not include items")
		}
		if seen[order.ID] {
			t.Fatalf("order %s returned twice", order.ID)
		}
		seen[order.ID] = true
	}

	for i := 1; i < len(page1); i++ {
		if page1[i].CreatedAt.After(page1[i-1].CreatedAt) {
			t.Fatal("expected created_at DESC ordering")
		}
	}
}

func TestOrderRepositoryIntegration_UpdateStatus(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	order := buildIntegrationOrder()
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.OrderStatusPaid {
		t.Fatalf("expected PAID, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(order.UpdatedAt) {
		t.Fatal("expected updated_at to move forward")
	}
	if updated.TotalAmountMinor != order.TotalAmountMinor {
		t.Fatal("status update must not touch totals")
	}

	if _, err := repo.UpdateStatus(ctx, uuid.NewString(), domain.OrderStatusPaid); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for unknown id, got %v", err)
	}
}
