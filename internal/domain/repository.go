package domain

import "context"

// ListFilter задаёт параметры постраничной выборки заказов.
type ListFilter struct {
	// Status фильтрует заказы по статусу; nil означает "все статусы".
	Status *OrderStatus
	// Page — номер страницы, начиная с 1.
	Page int
	// Limit — размер страницы, строго положительный.
	Limit int
}

// Offset возвращает смещение первой записи страницы.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе со всеми позициями:
	// частичная запись (заказ без позиций или наоборот) недопустима.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ с позициями или *NotFoundError, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает страницу заказов без позиций и общее число
	// заказов, подходящих под фильтр.
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	// UpdateStatus записывает новый статус заказа и обновляет updated_at.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (Order, error)
}
