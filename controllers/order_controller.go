package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middlewares"
	"storefront/models"
	"storefront/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (h *OrderController) CreateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("create", succeeded(c))
	}()
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), u, input)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderController) GetUserOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list", succeeded(c))
	}()
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, err := h.orders.List(c.Request.Context(), u, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderController) GetOrderStats(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	stats, err := h.orders.Stats(c.Request.Context(), &u.ID)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *OrderController) GetOrderDetails(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("details", succeeded(c))
	}()
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), u, orderID)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderController) CancelOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("cancel", succeeded(c))
	}()
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	// The body is optional; an empty one means no reason.
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	order, err := h.orders.Cancel(c.Request.Context(), u, orderID, request.Reason)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus is the administrative transition endpoint.
func (h *OrderController) UpdateOrderStatus(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update_status", succeeded(c))
	}()
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	var request struct {
		Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), orderID, models.OrderStatus(request.Status), request.Note)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderController) UpdateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update", succeeded(c))
	}()
	orderID, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	var input services.FulfilmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateFulfilment(c.Request.Context(), orderID, input)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, order)
}
