package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
	"github.com/RezaAbdollahigit/StoreTrack/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req domain.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), req.CustomerName, req.Items)
	if err != nil {
		var notFound *service.ProductNotFoundError
		var insufficient *service.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrEmptyBasket):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Shopping cart cannot be empty."})
		case errors.As(err, &notFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":      "Product not found",
				"product_id": notFound.ProductID,
			})
		case errors.As(err, &insufficient):
			c.JSON(http.StatusConflict, gin.H{
				"error":      "Insufficient stock",
				"product_id": insufficient.ProductID,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
			})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Order could not be placed, please retry"})
		default:
			h.logger.Error("Failed to place order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := domain.OrderFilter{
		CustomerNameSearch: c.Query("search"),
		ProductNameSearch:  c.Query("product"),
	}
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}
		filter.IDSearch = uint(id)
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.Error("Failed to get order", zap.Uint("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		var invalid *service.InvalidTransitionError
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized order status"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Invalid status transition",
				"from":  invalid.From,
				"to":    invalid.To,
			})
		default:
			h.logger.Error("Failed to update order status", zap.Uint("order_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.Error("Failed to delete order", zap.Uint("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func (h *OrderHandler) SalesSummary(c *gin.Context) {
	summary, err := h.orderService.SalesSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute sales summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales report"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}
