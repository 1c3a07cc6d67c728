package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/middlewares"
	"storefront/services"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Products   *services.ProductService
	Categories *services.CategoryService
	Orders     *services.OrderService
}

// NewRouter builds the engine with every route and the shared middleware.
func NewRouter(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middlewares.RequestID(), middlewares.PrometheusMiddleware())
	RegisterRoutes(r, svc)
	return r
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	authH := NewAuthController(svc.Auth)
	userH := NewUserController(svc.Users)
	productH := NewProductController(svc.Products)
	categoryH := NewCategoryController(svc.Categories)
	orderH := NewOrderController(svc.Orders)
	adminH := NewAdminController(svc.Orders, svc.Users, svc.Products)

	guard := middlewares.TelegramAuth(svc.Auth)
	adminGuard := middlewares.AdminAuth(svc.Auth)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/telegram", authH.TelegramLogin)
		auth.GET("/me", guard, authH.Me)
		auth.POST("/validate", authH.ValidateToken)
		auth.GET("/webapp-url", authH.WebAppURL)
	}

	users := r.Group("/users", guard)
	{
		users.GET("/profile", userH.GetProfile)
		users.PATCH("/profile", userH.UpdateProfile)
		users.POST("/cart/add", userH.AddToCart)
		users.POST("/cart/remove", userH.RemoveFromCart)
		users.POST("/cart/clear", userH.ClearCart)
		users.POST("/favorites/add/:productId", userH.AddFavorite)
		users.POST("/favorites/remove/:productId", userH.RemoveFavorite)
	}

	products := r.Group("/products")
	{
		products.GET("", productH.List)
		products.GET("/featured", productH.Featured)
		products.GET("/slug/:slug", productH.GetBySlug)
		products.GET("/:id", productH.Get)
		products.GET("/:id/related", productH.Related)
		products.POST("/:id/reviews", guard, productH.AddReview)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", categoryH.List)
		categories.GET("/slug/:slug", categoryH.GetBySlug)
		categories.GET("/:id", categoryH.Get)
		categories.GET("/:id/children", categoryH.Children)
	}

	orders := r.Group("/orders")
	{
		orders.POST("", guard, orderH.CreateOrder)
		orders.GET("", guard, orderH.GetUserOrders)
		orders.GET("/stats", guard, orderH.GetOrderStats)
		orders.GET("/:id", guard, orderH.GetOrderDetails)
		orders.POST("/:id/cancel", guard, orderH.CancelOrder)
		orders.POST("/:id/status", adminGuard, orderH.UpdateOrderStatus)
		orders.PATCH("/:id", adminGuard, orderH.UpdateOrder)
	}

	r.POST("/admin/auth/login", authH.AdminLogin)
	admin := r.Group("/admin", adminGuard)
	{
		admin.GET("/dashboard/stats", adminH.DashboardStats)
		admin.GET("/users", adminH.Users)
		admin.POST("/products", productH.Create)
		admin.PATCH("/products/:id", productH.Update)
		admin.DELETE("/products/:id", productH.Delete)
		admin.POST("/categories", categoryH.Create)
		admin.PATCH("/categories/:id", categoryH.Update)
		admin.DELETE("/categories/:id", categoryH.Delete)
	}
}
