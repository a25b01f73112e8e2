package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const aggregateTypeOrder = "order"

// CreateItem — одна запрошенная позиция при создании заказа.
// Форма и позитивность количеств проверяются DTO-слоем транспорта
// до вызова workflow.
type CreateItem struct {
	ProductID string
	Quantity  int32
}

// PageMeta описывает метаданные постраничной выборки.
type PageMeta struct {
	Total    int
	Page     int
	LastPage int
}

// ListResult — страница заказов вместе с метаданными.
type ListResult struct {
	Data []domain.Order
	Meta PageMeta
}

// Service реализует workflow заказов: создание с валидацией товаров,
// постраничное чтение, выборку с обогащением и смену статуса.
// Собственного mutable-состояния не держит: всё состояние живёт
// в хранилище и во внешнем сервисе продуктов.
type Service struct {
	repo     domain.OrderRepository
	products domain.ProductValidator
	outbox   domain.OutboxRepository
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// NewService конструирует workflow с зависимостями.
// outbox может быть nil — тогда события не публикуются.
func NewService(
	repo domain.OrderRepository,
	products domain.ProductValidator,
	outbox domain.OutboxRepository,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "orders-service")
	}
	if orderMetrics == nil {
		orderMetrics = metrics.NewOrderMetrics()
	}
	return &Service{
		repo:     repo,
		products: products,
		outbox:   outbox,
		metrics:  orderMetrics,
		logger:   logger,
	}
}

// Create валидирует товары во внешнем каталоге, считает агрегаты,
// атомарно сохраняет заказ с позициями и возвращает его с именами
// товаров из того же ответа валидации.
func (s *Service) Create(ctx context.Context, items []CreateItem) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}

	ids := distinctProductIDs(items)

	products, err := s.validateProducts(ctx, ids)
	if err != nil {
		s.metrics.RecordCreateFailure(metrics.CreateFailureValidation)
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	orderItems := make([]domain.OrderItem, 0, len(items))
	var totalAmount int64
	var totalItems int32
	for _, item := range items {
		product, ok := products.Lookup(item.ProductID)
		if !ok {
			// Клиент обязан вернуть ровно запрошенные id; расхождение
			// трактуем как отказ валидации всего батча.
			s.metrics.RecordCreateFailure(metrics.CreateFailureValidation)
			return domain.Order{}, &domain.ProductValidationError{MissingIDs: []string{item.ProductID}}
		}

		orderItems = append(orderItems, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
		totalAmount += int64(item.Quantity) * product.PriceMinor
		totalItems += item.Quantity
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		TotalAmountMinor: totalAmount,
		TotalItems:       totalItems,
		Status:           domain.OrderStatusPending,
		Items:            orderItems,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.metrics.RecordCreateFailure(metrics.CreateFailureValidation)
		return domain.Order{}, errs[0]
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		s.metrics.RecordCreateFailure(metrics.CreateFailurePersistence)
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.metrics.RecordOrderCreated()
	s.enqueueEvent(ctx, kafka.NewOrderEvent(
		kafka.EventTypeOrderCreated,
		order.ID,
		string(order.Status),
		order.TotalAmountMinor,
		order.TotalItems,
		nil,
	))

	attachProductNames(&order, products)
	return order, nil
}

// List возвращает страницу заказов без позиций. Имена товаров в листинге
// не подтягиваются: операция остаётся O(размер страницы).
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (ListResult, error) {
	if filter.Page <= 0 || filter.Limit <= 0 {
		return ListResult{}, fmt.Errorf("page and limit must be positive")
	}

	data, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return ListResult{}, fmt.Errorf("list orders: %w", err)
	}

	return ListResult{
		Data: data,
		Meta: buildPageMeta(total, filter.Page, filter.Limit),
	}, nil
}

// Get возвращает заказ с позициями, обогащёнными именами товаров.
// Каждый вызов заново обращается к сервису продуктов: кэширования нет.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("failed to load order")
		return domain.Order{}, err
	}

	products, err := s.validateProducts(ctx, order.ProductIDs())
	if err != nil {
		return domain.Order{}, err
	}

	attachProductNames(&order, products)
	return order, nil
}

// ChangeStatus переводит заказ в новый статус. Повторный запрос с тем же
// статусом — идемпотентный no-op без записи в хранилище. Возвращаемый
// заказ в обоих случаях обогащён именами товаров из чтения Get: второй
// поход в сервис продуктов на пути записи не выполняется.
func (s *Service) ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if order.Status == status {
		s.metrics.RecordStatusNoop()
		return order, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": id,
			"status":   status,
		}).Error("failed to change order status")
		return domain.Order{}, fmt.Errorf("change order status: %w", err)
	}

	s.metrics.RecordStatusTransition(string(status))
	s.enqueueEvent(ctx, kafka.NewOrderEvent(
		kafka.EventTypeOrderStatusChanged,
		id,
		string(updated.Status),
		order.TotalAmountMinor,
		order.TotalItems,
		map[string]string{"previous_status": string(order.Status)},
	))

	order.Status = updated.Status
	order.UpdatedAt = updated.UpdatedAt
	return order, nil
}

func (s *Service) validateProducts(ctx context.Context, ids []string) (domain.ProductSet, error) {
	started := time.Now()
	products, err := s.products.Validate(ctx, ids)
	if err != nil {
		outcome := metrics.ValidationOutcomeUnavailable
		if domain.IsProductValidation(err) {
			outcome = metrics.ValidationOutcomeMissing
		}
		s.metrics.RecordProductValidation(outcome, time.Since(started))
		s.logger.WithError(err).WithField("product_ids", ids).Warn("product validation failed")
		return nil, err
	}
	s.metrics.RecordProductValidation(metrics.ValidationOutcomeOK, time.Since(started))

	// Ответ обязан покрывать все запрошенные id.
	if missing := products.MissingFrom(ids); len(missing) > 0 {
		err := &domain.ProductValidationError{MissingIDs: missing}
		s.logger.WithField("missing_ids", missing).Warn("product validation response incomplete")
		return nil, err
	}

	return products, nil
}

// enqueueEvent ставит событие в outbox. Ошибка постановки не валит
// операцию: доставка событий at-least-once обеспечивается воркером,
// а сбой фиксируется в логах.
func (s *Service) enqueueEvent(ctx context.Context, event *kafka.OrderEvent) {
	if s.outbox == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", event.OrderID).Warn("failed to encode outbox payload")
		return
	}

	if _, err := s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: aggregateTypeOrder,
		AggregateID:   event.OrderID,
		EventType:     string(event.EventType),
		Payload:       body,
	}); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": event.OrderID,
			"event":    event.EventType,
		}).Warn("failed to enqueue outbox event")
		return
	}

	s.metrics.RecordOutboxEnqueued()
}

func distinctProductIDs(items []CreateItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func attachProductNames(order *domain.Order, products domain.ProductSet) {
	for i := range order.Items {
		if product, ok := products.Lookup(order.Items[i].ProductID); ok {
			order.Items[i].ProductName = product.Name
		}
	}
}
