package orders

// buildPageMeta считает метаданные страницы: lastPage = ceil(total/limit).
func buildPageMeta(total, page, limit int) PageMeta {
	lastPage := 0
	if limit > 0 {
		lastPage = (total + limit - 1) / limit
	}
	return PageMeta{
		Total:    total,
		Page:     page,
		LastPage: lastPage,
	}
}
