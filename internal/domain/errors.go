package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total_amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибка несоответствия total_items и суммы количеств.
	ErrTotalItemsMismatch = errors.New("order total_items does not match items quantities")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrInvalidStatus возвращается при неизвестном значении статуса.
	ErrInvalidStatus = errors.New("unknown order status")
	// ErrProductUnavailable — сервис продуктов недоступен или ответил ошибкой.
	ErrProductUnavailable = errors.New("product service unavailable")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ProductValidationError сигнализирует, что часть запрошенных товаров
// не прошла валидацию в каталоге. Весь батч считается невалидным.
type ProductValidationError struct {
	MissingIDs []string
}

func (e *ProductValidationError) Error() string {
	if len(e.MissingIDs) == 0 {
		return "product validation failed"
	}
	return fmt.Sprintf("product validation failed: unknown ids [%s]", strings.Join(e.MissingIDs, ", "))
}

// NotFoundError несёт идентификатор отсутствующего заказа.
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order with id %s not found", e.OrderID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrOrderNotFound
}

// IsProductValidation проверяет, является ли ошибка отказом валидации товаров.
func IsProductValidation(err error) bool {
	var target *ProductValidationError
	return errors.As(err, &target)
}
