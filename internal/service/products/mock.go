package products

import (
	"context"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// MockService — конфигурируемая заглушка ProductValidator для тестов
// и локального запуска без сервиса продуктов.
type MockService struct {
	Products    map[string]domain.Product
	ValidateErr error

	ValidateCalls int
}

// NewMockService возвращает mock с заданным каталогом товаров.
func NewMockService(products ...domain.Product) *MockService {
	catalog := make(map[string]domain.Product, len(products))
	for _, product := range products {
		catalog[product.ID] = product
	}
	return &MockService{Products: catalog}
}

// Validate отвечает из локального каталога, считая вызовы. Неизвестные
// идентификаторы проваливают весь батч, как и настоящий сервис.
func (m *MockService) Validate(_ context.Context, ids []string) (domain.ProductSet, error) {
	m.ValidateCalls++
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}

	set := make(domain.ProductSet, len(ids))
	var missing []string
	for _, id := range ids {
		product, ok := m.Products[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		set[id] = product
	}
	if len(missing) > 0 {
		return nil, &domain.ProductValidationError{MissingIDs: missing}
	}

	return set, nil
}

var _ domain.ProductValidator = (*MockService)(nil)
