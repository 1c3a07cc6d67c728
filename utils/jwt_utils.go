package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeSession = "session"
	TokenTypeAdmin   = "admin"
)

var ErrWrongTokenType = errors.New("wrong token type")

// SessionClaims are carried by tokens issued after Telegram verification.
type SessionClaims struct {
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName,omitempty"`
	Username   string `json:"username,omitempty"`
	Type       string `json:"type"`
	jwt.RegisteredClaims
}

// UserID is the internal identity id stored in the subject claim.
func (c *SessionClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) AdminID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenIssuer signs and parses HS256 tokens with a single secret.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	adminTTL   time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, sessionTTL, adminTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		adminTTL:   adminTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) IssueSession(userID, telegramID int64, firstName, username string) (string, error) {
	claims := SessionClaims{
		TelegramID:       telegramID,
		FirstName:        firstName,
		Username:         username,
		Type:             TokenTypeSession,
		RegisteredClaims: t.registered(strconv.FormatInt(userID, 10), t.sessionTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) IssueAdmin(adminID int64, email, role string) (string, error) {
	claims := AdminClaims{
		Email:            email,
		Role:             role,
		Type:             TokenTypeAdmin,
		RegisteredClaims: t.registered(strconv.FormatInt(adminID, 10), t.adminTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func (t *TokenIssuer) ParseSession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeSession {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (t *TokenIssuer) ParseAdmin(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAdmin {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
