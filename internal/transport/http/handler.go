package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	orderssvc "github.com/vladislavdragonenkov/orders/internal/service/orders"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Причины отказа не раскрываются клиенту при создании заказа:
// наружу уходит единый ответ, детали остаются в логах.
const createFailedMessage = "order creation failed"

// Handler обрабатывает HTTP-запросы к API заказов.
type Handler struct {
	service *orderssvc.Service
	logger  *log.Entry
}

// NewHandler создаёт HTTP handler поверх workflow заказов.
func NewHandler(service *orderssvc.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("rejected malformed create order payload")
		c.JSON(http.StatusBadRequest, errorResponse{Error: createFailedMessage})
		return
	}

	if msg, ok := validateCreateRequest(req); !ok {
		h.logger.WithField("reason", msg).Warn("rejected invalid create order request")
		c.JSON(http.StatusBadRequest, errorResponse{Error: createFailedMessage})
		return
	}

	order, err := h.service.Create(c.Request.Context(), req.toCreateItems())
	if err != nil {
		h.logger.WithError(err).Error("order creation failed")
		c.JSON(http.StatusBadRequest, errorResponse{Error: createFailedMessage})
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	filter, err := buildListFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to list orders")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, toListResponse(result))
}

func (h *Handler) getOrder(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "order not found", OrderID: id})
		return
	}

	order, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondGetError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) changeStatus(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "order not found", OrderID: id})
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid status payload"})
		return
	}

	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "unknown status, expected one of: " + strings.Join(knownStatusNames(), ", "),
		})
		return
	}

	order, err := h.service.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		h.respondGetError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) respondGetError(c *gin.Context, id string, err error) {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "order not found", OrderID: notFound.OrderID})
		return
	}
	if errors.Is(err, domain.ErrProductUnavailable) {
		h.logger.WithError(err).WithField("order_id", id).Error("product catalog is unavailable")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "product catalog is unavailable"})
		return
	}

	h.logger.WithError(err).WithField("order_id", id).Error("order request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func validateCreateRequest(req createOrderRequest) (string, bool) {
	if len(req.Items) == 0 {
		return "items must not be empty", false
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return "item product_id must not be empty", false
		}
		if item.Quantity <= 0 {
			return "item quantity must be positive", false
		}
	}
	return "", true
}

func buildListFilter(c *gin.Context) (domain.ListFilter, error) {
	filter := domain.ListFilter{Page: defaultPage, Limit: defaultLimit}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return domain.ListFilter{}, errors.New("page must be a positive integer")
		}
		filter.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return domain.ListFilter{}, errors.New("limit must be between 1 and 100")
		}
		filter.Limit = limit
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return domain.ListFilter{}, errors.New("unknown status, expected one of: " + strings.Join(knownStatusNames(), ", "))
		}
		filter.Status = &status
	}

	return filter, nil
}

func knownStatusNames() []string {
	statuses := domain.KnownStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return names
}
