package orders_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
	"github.com/vladislavdragonenkov/orders/internal/service/products"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

type fixture struct {
	svc      *orders.Service
	repo     domain.OrderRepository
	products *products.MockService
	outbox   domain.OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	catalog := products.NewMockService(
		domain.Product{ID: "p1", Name: "Keyboard", PriceMinor: 1000},
		domain.Product{ID: "p2", Name: "Mouse", PriceMinor: 500},
	)
	orderMetrics := metrics.NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	return &fixture{
		svc:      orders.NewService(repo, catalog, outbox, orderMetrics, loggerForTests()),
		repo:     repo,
		products: catalog,
		outbox:   outbox,
	}
}

func TestCreate_ComputesTotals(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), []orders.CreateItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)

	require.Equal(t, int64(2500), order.TotalAmountMinor)
	require.Equal(t, int32(3), order.TotalItems)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	require.Equal(t, "Keyboard", order.Items[0].ProductName)
	require.Equal(t, "Mouse", order.Items[1].ProductName)

	stored, err := f.repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), stored.TotalAmountMinor)
	require.Equal(t, int32(3), stored.TotalItems)
	require.Empty(t, stored.Items[0].ProductName, "product names must not be persisted")
}

func TestCreate_SnapshotsPrice(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), []orders.CreateItem{
		{ProductID: "p1", Quantity: 1},
	})
	require.NoError(t, err)

	// Цена в каталоге меняется после создания заказа.
	f.products.Products["p1"] = domain.Product{ID: "p1", Name: "Keyboard", PriceMinor: 9999}

	stored, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), stored.Items[0].PriceMinor, "stored price snapshot must not follow the catalog")
	require.Equal(t, int64(1000), stored.TotalAmountMinor)
}

func TestCreate_UnknownProductFailsAtomically(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), []orders.CreateItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 2},
	})
	require.Error(t, err)
	require.True(t, domain.IsProductValidation(err))

	// Ни заказа, ни позиций сохранено быть не должно.
	result, err := f.svc.List(context.Background(), domain.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 0, result.Meta.Total)
	require.Empty(t, result.Data)

	pending, err := f.outbox.PullPending(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending, "no event must be enqueued for a failed creation")
}

func TestCreate_ProductServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.products.ValidateErr = fmt.Errorf("dial: %w", domain.ErrProductUnavailable)

	_, err := f.svc.Create(context.Background(), []orders.CreateItem{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrProductUnavailable)
	require.False(t, domain.IsProductValidation(err))
}

func TestCreate_EnqueuesOutboxEvent(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), []orders.CreateItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	pending, err := f.outbox.PullPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "order.created", pending[0].EventType)
	require.Equal(t, order.ID, pending[0].AggregateID)

	var event kafka.OrderEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	require.Equal(t, kafka.EventTypeOrderCreated, event.EventType)
	require.Equal(t, order.ID, event.OrderID)
	require.Equal(t, order.TotalAmountMinor, event.TotalAmountMinor)
	require.False(t, event.Timestamp.IsZero())
}

func TestCreate_DuplicateProductIDsValidatedOnce(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), []orders.CreateItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.products.ValidateCalls)
	require.Equal(t, int64(3000), order.TotalAmountMinor)
	require.Equal(t, int32(3), order.TotalItems)
}

func TestGet_EnrichesNames(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), []orders.CreateItem{{ProductID: "p2", Quantity: 1}})
	require.NoError(t, err)
	callsAfterCreate := f.products.ValidateCalls

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Mouse", got.Items[0].ProductName)
	// Каждое чтение заново обращается к сервису продуктов.
	require.Equal(t, callsAfterCreate+1, f.products.ValidateCalls)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.OrderID)
}

func TestList_PaginationMeta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := f.svc.Create(ctx, []orders.CreateItem{{ProductID: "p1", Quantity: 1}})
		require.NoError(t, err)
	}

	pending := domain.OrderStatusPending
	result, err := f.svc.List(ctx, domain.ListFilter{Status: &pending, Page: 2, Limit: 10})
	require.NoError(t, err)

	require.Equal(t, 25, result.Meta.Total)
	require.Equal(t, 2, result.Meta.Page)
	require.Equal(t, 3, result.Meta.LastPage)
	require.Len(t, result.Data, 10)
	for _, order := range result.Data {
		require.Nil(t, order.Items, "list view must not include items")
	}
}

func TestList_StatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, []orders.CreateItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, created.ID, domain.OrderStatusPaid)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, []orders.CreateItem{{ProductID: "p2", Quantity: 1}})
	require.NoError(t, err)

	paid := domain.OrderStatusPaid
	result, err := f.svc.List(ctx, domain.ListFilter{Status: &paid, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Meta.Total)
	require.Equal(t, created.ID, result.Data[0].ID)
}

func TestList_InvalidPage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), domain.ListFilter{Page: 0, Limit: 10})
	require.Error(t, err)
}

func TestChangeStatus_PersistsNewStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, []orders.CreateItem{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	updated, err := f.svc.ChangeStatus(ctx, created.ID, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, updated.Status)
	// Возвращаемый заказ сохраняет обогащение из чтения.
	require.Equal(t, "Keyboard", updated.Items[0].ProductName)

	stored, err := f.repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, stored.Status)
	require.Equal(t, created.TotalAmountMinor, stored.TotalAmountMinor, "status change must not touch totals")
}

func TestChangeStatus_IdempotentNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, []orders.CreateItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	first, err := f.svc.ChangeStatus(ctx, created.ID, domain.OrderStatusPaid)
	require.NoError(t, err)

	// Повтор с тем же статусом: без записи, updated_at не двигается.
	second, err := f.svc.ChangeStatus(ctx, created.ID, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)

	// Событие о смене статуса должно быть только одно.
	pending, err := f.outbox.PullPending(context.Background(), 100)
	require.NoError(t, err)
	statusEvents := 0
	for _, msg := range pending {
		if msg.EventType == "order.status_changed" {
			statusEvents++
		}
	}
	require.Equal(t, 1, statusEvents)
}

func TestChangeStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ChangeStatus(context.Background(), "missing", domain.OrderStatusPaid)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
