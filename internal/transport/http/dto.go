package http

import (
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	orderssvc "github.com/vladislavdragonenkov/orders/internal/service/orders"
)

// createOrderRequest — тело POST /api/v1/orders.
type createOrderRequest struct {
	Items []createOrderItem `json:"items"`
}

type createOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// changeStatusRequest — тело PATCH /api/v1/orders/:id/status.
type changeStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	PriceMinor  int64  `json:"price_minor"`
	Quantity    int32  `json:"quantity"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	TotalAmountMinor int64               `json:"total_amount_minor"`
	TotalItems       int32               `json:"total_items"`
	Status           string              `json:"status"`
	Items            []orderItemResponse `json:"items,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type pageMetaResponse struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
}

type listOrdersResponse struct {
	Data []orderResponse  `json:"data"`
	Meta pageMetaResponse `json:"meta"`
}

type errorResponse struct {
	Error   string `json:"error"`
	OrderID string `json:"order_id,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			PriceMinor:  item.PriceMinor,
			Quantity:    item.Quantity,
		})
	}

	return orderResponse{
		ID:               order.ID,
		TotalAmountMinor: order.TotalAmountMinor,
		TotalItems:       order.TotalItems,
		Status:           string(order.Status),
		Items:            items,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func toListResponse(result orderssvc.ListResult) listOrdersResponse {
	data := make([]orderResponse, 0, len(result.Data))
	for _, order := range result.Data {
		data = append(data, toOrderResponse(order))
	}

	return listOrdersResponse{
		Data: data,
		Meta: pageMetaResponse{
			Total:    result.Meta.Total,
			Page:     result.Meta.Page,
			LastPage: result.Meta.LastPage,
		},
	}
}

func (r createOrderRequest) toCreateItems() []orderssvc.CreateItem {
	items := make([]orderssvc.CreateItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orderssvc.CreateItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}
