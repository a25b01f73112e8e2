package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не подтверждена.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid — оплата по заказу подтверждена.
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// KnownStatuses возвращает полный набор допустимых статусов.
func KnownStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// ParseOrderStatus валидирует строковое значение статуса.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, status := range KnownStatuses() {
		if string(status) == raw {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — внешний идентификатор товара в каталоге продуктов.
	ProductID string
	// Quantity — количество единиц товара.
	Quantity int32
	// PriceMinor — снимок цены товара на момент создания заказа,
	// в минимальных денежных единицах. Последующие изменения цены
	// в каталоге не затрагивают исторические заказы.
	PriceMinor int64
	// ProductName подтягивается из сервиса продуктов при чтении
	// и не хранится в БД.
	ProductName string
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID string
	// TotalAmountMinor — сумма price*quantity по всем позициям,
	// вычисляется один раз при создании и далее не пересчитывается.
	TotalAmountMinor int64
	// TotalItems — суммарное количество единиц во всех позициях.
	TotalItems int32
	Status     OrderStatus
	// Items отсортированы в порядке вставки; после создания заказа
	// позиции не добавляются и не удаляются.
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalAmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем агрегаты заказа с позициями: сумма и количество.
	var calcAmount int64
	var calcItems int32
	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calcAmount += int64(item.Quantity) * item.PriceMinor
		calcItems += item.Quantity
	}
	if calcAmount != o.TotalAmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}
	if calcItems != o.TotalItems {
		errs = append(errs, ErrTotalItemsMismatch)
	}

	return errs
}

// ProductIDs возвращает уникальные идентификаторы товаров в позициях заказа.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
