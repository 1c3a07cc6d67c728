package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/services"
)

type AdminController struct {
	orders   *services.OrderService
	users    *services.UserService
	products *services.ProductService
}

func NewAdminController(orders *services.OrderService, users *services.UserService, products *services.ProductService) *AdminController {
	return &AdminController{orders: orders, users: users, products: products}
}

func (h *AdminController) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	orderStats, err := h.orders.Stats(ctx, nil)
	if err != nil {
		respondError(c, err, "Order")
		return
	}
	userStats, err := h.users.Stats(ctx)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	productStats, err := h.products.Stats(ctx)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":   orderStats,
		"users":    userStats,
		"products": productStats,
	})
}

func (h *AdminController) Users(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, page)
}
