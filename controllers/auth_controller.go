package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middlewares"
	"storefront/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (h *AuthController) TelegramLogin(c *gin.Context) {
	var request struct {
		InitData string `json:"initData" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.AuthenticateTelegram(c.Request.Context(), request.InitData)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthController) Me(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": services.NewSessionUser(u)})
}

func (h *AuthController) ValidateToken(c *gin.Context) {
	var request struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.auth.ValidateToken(c.Request.Context(), request.Token)
	if err != nil {
		respondError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": services.NewSessionUser(u)})
}

func (h *AuthController) WebAppURL(c *gin.Context) {
	url, err := h.auth.WebAppURL(c.Query("startParam"))
	if err != nil {
		log.Printf("Web app url unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Bot username not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *AuthController) AdminLogin(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.AdminLogin(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, err, "Admin")
		return
	}
	c.JSON(http.StatusOK, result)
}
