package http

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает gin-роутер API заказов.
func NewRouter(handler *Handler, logger *log.Entry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(requestMetrics())

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", handler.createOrder)
			orders.GET("", handler.listOrders)
			orders.GET("/:id", handler.getOrder)
			orders.PATCH("/:id/status", handler.changeStatus)
		}
	}

	return router
}
