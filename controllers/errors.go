package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/services"
)

// respondError maps service errors to the response shape used by every
// handler. resource names what a NotFound refers to.
func respondError(c *gin.Context, err error, resource string) {
	var (
		authErr     *services.AuthError
		rejectedErr *services.OrderRejectedError
		validErr    *services.ValidationError
		conflictErr *services.ConflictError
	)
	switch {
	case errors.As(err, &authErr):
		msg := "Unauthorized"
		if authErr.Reason == services.AuthBadCredentials {
			msg = "Invalid credentials"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	case errors.As(err, &rejectedErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": rejectedErr.Message, "reason": rejectedErr.Reason})
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func paramID(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + resource + " ID"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}

func succeeded(c *gin.Context) bool {
	return c.Writer.Status() >= 200 && c.Writer.Status() < 300
}
