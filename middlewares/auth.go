package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"

	userKey   = "user"
	userIDKey = "userID"
	adminKey  = "admin"

	maxInitDataBody = 1 << 20
)

// Authenticator resolves Telegram evidence to an identity.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	VerifyInitData(ctx context.Context, raw string) (*models.User, error)
}

type AdminAuthenticator interface {
	ValidateAdminToken(ctx context.Context, token string) (*models.Admin, error)
}

// TelegramAuth accepts, in order, a bearer session token, init data in the
// X-Telegram-Init-Data header, or init data in the JSON body field
// initData. An invalid bearer token falls through to the init data
// sources; invalid init data is rejected.
func TelegramAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := bearerToken(c); ok {
			u, err := auth.ValidateToken(ctx, token)
			RecordAuthAttempt("bearer", err == nil)
			if err == nil {
				setUser(c, u)
				c.Next()
				return
			}
		}

		if raw := c.GetHeader(InitDataHeader); raw != "" {
			verifyInitData(c, auth, "header", raw)
			return
		}

		if raw := initDataFromBody(c); raw != "" {
			verifyInitData(c, auth, "body", raw)
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No valid authentication found"})
	}
}

func verifyInitData(c *gin.Context, auth Authenticator, source, raw string) {
	u, err := auth.VerifyInitData(c.Request.Context(), raw)
	RecordAuthAttempt(source, err == nil)
	if err != nil {
		var authErr *services.AuthError
		if !errors.As(err, &authErr) {
			log.Printf("Init data verification failed: %v", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Telegram authentication"})
		return
	}
	setUser(c, u)
	c.Next()
}

// AdminAuth requires an admin token in the Authorization header.
func AdminAuth(auth AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin authentication required"})
			return
		}
		admin, err := auth.ValidateAdminToken(c.Request.Context(), token)
		RecordAuthAttempt("admin", err == nil)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin token"})
			return
		}
		c.Set(adminKey, admin)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

// initDataFromBody peeks at a JSON body for initData and restores the body
// for the handler.
func initDataFromBody(c *gin.Context) string {
	if c.Request.Body == nil || !strings.Contains(c.ContentType(), "json") {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInitDataBody))
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		InitData string `json:"initData"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.InitData
}

func setUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
	c.Set(userIDKey, u.ID)
}

// CurrentUser returns the identity set by TelegramAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// CurrentAdmin returns the admin set by AdminAuth.
func CurrentAdmin(c *gin.Context) (*models.Admin, bool) {
	v, ok := c.Get(adminKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*models.Admin)
	return a, ok
}
