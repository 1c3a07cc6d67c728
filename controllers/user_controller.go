package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middlewares"
	"storefront/models"
	"storefront/repository"
	"storefront/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (h *UserController) GetProfile(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserController) UpdateProfile(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	var request struct {
		FirstName    *string             `json:"firstName"`
		LastName     *string             `json:"lastName"`
		LanguageCode *string             `json:"languageCode"`
		Preferences  *models.Preferences `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.users.UpdateProfile(c.Request.Context(), u.ID, repository.UserProfileUpdate{
		FirstName:    request.FirstName,
		LastName:     request.LastName,
		LanguageCode: request.LanguageCode,
		Preferences:  request.Preferences,
	})
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, updated)
}

type cartRequest struct {
	ProductID       int64  `json:"productId" binding:"required"`
	Quantity        int    `json:"quantity"`
	SelectedVariant string `json:"selectedVariant"`
}

func (h *UserController) AddToCart(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	var request cartRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Quantity == 0 {
		request.Quantity = 1
	}
	updated, err := h.users.AddToCart(c.Request.Context(), u.ID, models.CartItem{
		ProductID:       request.ProductID,
		Quantity:        request.Quantity,
		SelectedVariant: request.SelectedVariant,
	})
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, updated.Cart)
}

func (h *UserController) RemoveFromCart(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	var request cartRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.users.RemoveFromCart(c.Request.Context(), u.ID, request.ProductID, request.SelectedVariant)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, updated.Cart)
}

func (h *UserController) ClearCart(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	updated, err := h.users.ClearCart(c.Request.Context(), u.ID)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, updated.Cart)
}

func (h *UserController) AddFavorite(c *gin.Context) {
	h.changeFavorite(c, h.users.AddFavorite)
}

func (h *UserController) RemoveFavorite(c *gin.Context) {
	h.changeFavorite(c, h.users.RemoveFavorite)
}

func (h *UserController) changeFavorite(c *gin.Context, change func(ctx context.Context, userID, productID int64) (*models.User, error)) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	productID, ok := paramID(c, "productId", "product")
	if !ok {
		return
	}
	updated, err := change(c.Request.Context(), u.ID, productID)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favoriteProducts": updated.FavoriteProducts})
}
