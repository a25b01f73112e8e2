package products

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const (
	validatePath       = "/api/v1/products/validate"
	defaultHTTPTimeout = 10 * time.Second
)

// Client — HTTP-клиент сервиса продуктов. Создаётся один раз на процесс
// и переиспользуется всеми запросами (долгоживущий shared handle).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient конструирует клиента для заданного базового URL.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.WithField("component", "products-client")
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger: logger,
	}
}

type validateRequest struct {
	IDs []string `json:"ids"`
}

type validateResponseItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
}

type validateErrorResponse struct {
	Error      string   `json:"error"`
	MissingIDs []string `json:"missing_ids,omitempty"`
}

// Validate запрашивает валидацию батча идентификаторов. Контракт сервиса
// продуктов: либо возвращаются все запрошенные товары, либо весь батч
// считается невалидным.
func (c *Client) Validate(ctx context.Context, ids []string) (domain.ProductSet, error) {
	body, err := json.Marshal(validateRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encode validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProductUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Продолжаем ниже.
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		var errResp validateErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			c.logger.WithError(decodeErr).Warn("failed to decode validation error body")
		}
		return nil, &domain.ProductValidationError{MissingIDs: errResp.MissingIDs}
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrProductUnavailable, resp.StatusCode)
	}

	var items []validateResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProductUnavailable, err)
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		products = append(products, domain.Product{
			ID:         item.ID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
		})
	}
	set := domain.NewProductSet(products)

	if missing := set.MissingFrom(ids); len(missing) > 0 {
		return nil, &domain.ProductValidationError{MissingIDs: missing}
	}

	return set, nil
}

// Ping проверяет доступность сервиса продуктов (для health checks).
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/livez", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProductUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", domain.ErrProductUnavailable, resp.StatusCode)
	}
	return nil
}

var _ domain.ProductValidator = (*Client)(nil)
