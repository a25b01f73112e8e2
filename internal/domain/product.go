package domain

// Product — транзиентное представление товара из внешнего каталога.
// Никогда не персистится и не кэшируется: каждая операция чтения,
// которой нужны имена товаров, заново обращается к сервису продуктов.
type Product struct {
	ID         string
	Name       string
	PriceMinor int64
}

// ProductSet индексирует ответ валидации по идентификатору товара.
type ProductSet map[string]Product

// NewProductSet строит индекс из списка товаров.
func NewProductSet(products []Product) ProductSet {
	set := make(ProductSet, len(products))
	for _, product := range products {
		set[product.ID] = product
	}
	return set
}

// Lookup возвращает товар по идентификатору.
func (s ProductSet) Lookup(id string) (Product, bool) {
	product, ok := s[id]
	return product, ok
}

// MissingFrom возвращает идентификаторы из requested, которых нет в наборе.
func (s ProductSet) MissingFrom(requested []string) []string {
	var missing []string
	for _, id := range requested {
		if _, ok := s[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
