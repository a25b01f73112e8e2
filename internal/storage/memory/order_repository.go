package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ вместе с позициями, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderExists
	}
	// Сохраняем копию с собственным слайсом позиций, чтобы избежать
	// непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ с позициями или *NotFoundError, если его нет.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, &domain.NotFoundError{OrderID: id}
	}
	return cloneOrder(order), nil
}

// List возвращает страницу заказов без позиций и общее число подходящих
// под фильтр. Выборка стабильна: created_at DESC, id DESC.
func (r *orderRepositoryInMemory) List(_ context.Context, filter domain.ListFilter) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		matched = append(matched, order)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]domain.Order, 0, end-start)
	for _, order := range matched[start:end] {
		// В листинге позиции не возвращаются.
		order.Items = nil
		page = append(page, order)
	}

	return page, total, nil
}

// UpdateStatus записывает новый статус и обновляет updated_at.
func (r *orderRepositoryInMemory) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, &domain.NotFoundError{OrderID: id}
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.items[id] = order

	updated := order
	updated.Items = nil
	return updated, nil
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.Items != nil {
		clone.Items = make([]domain.OrderItem, len(order.Items))
		copy(clone.Items, order.Items)
	}
	return clone
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
