package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"storefront/models"
	"storefront/repository"
	"storefront/telegram"
	"storefront/utils"
)

// SessionUser is the identity projection returned with a session token.
type SessionUser struct {
	ID               int64              `json:"id"`
	TelegramID       int64              `json:"telegramId"`
	FirstName        string             `json:"firstName"`
	LastName         string             `json:"lastName,omitempty"`
	Username         string             `json:"username,omitempty"`
	PhotoURL         string             `json:"photoUrl,omitempty"`
	IsPremium        bool               `json:"isPremium"`
	Preferences      models.Preferences `json:"preferences"`
	Cart             models.Cart        `json:"cart"`
	FavoriteProducts []int64            `json:"favoriteProducts"`
	LastActiveAt     time.Time          `json:"lastActiveAt"`
}

func NewSessionUser(u *models.User) SessionUser {
	return SessionUser{
		ID:               u.ID,
		TelegramID:       u.TelegramID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Username:         u.Username,
		PhotoURL:         u.PhotoURL,
		IsPremium:        u.IsPremium,
		Preferences:      u.Preferences,
		Cart:             u.Cart,
		FavoriteProducts: u.FavoriteProducts,
		LastActiveAt:     u.LastActiveAt,
	}
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        SessionUser `json:"user"`
}

type AdminLoginResult struct {
	AccessToken string        `json:"access_token"`
	Admin       *models.Admin `json:"admin"`
}

// AuthService turns Telegram init data or tokens into identities.
type AuthService struct {
	db          *sqlx.DB
	users       *UserService
	validator   *telegram.Validator
	tokens      *utils.TokenIssuer
	botUsername string
	now         func() time.Time
}

func NewAuthService(db *sqlx.DB, users *UserService, validator *telegram.Validator, tokens *utils.TokenIssuer, botUsername string) *AuthService {
	return &AuthService{
		db:          db,
		users:       users,
		validator:   validator,
		tokens:      tokens,
		botUsername: botUsername,
		now:         time.Now,
	}
}

// VerifyInitData validates a raw init-data string and returns the identity
// it belongs to, provisioning it on first sight.
func (s *AuthService) VerifyInitData(ctx context.Context, raw string) (*models.User, error) {
	data, err := s.validator.Validate(raw)
	if err != nil {
		return nil, initDataError(err)
	}
	u, err := s.users.FindOrCreate(ctx, data.User)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: errors.New("user is inactive")}
	}
	return u, nil
}

func initDataError(err error) error {
	switch {
	case errors.Is(err, telegram.ErrExpired):
		return &AuthError{Reason: AuthExpired, Err: err}
	case errors.Is(err, telegram.ErrMissingUser):
		return &AuthError{Reason: AuthMissingUser, Err: err}
	default:
		return &AuthError{Reason: AuthInvalidSignature, Err: err}
	}
}

// Login issues a session token for u.
func (s *AuthService) Login(u *models.User) (*LoginResult, error) {
	token, err := s.tokens.IssueSession(u.ID, u.TelegramID, u.FirstName, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &LoginResult{AccessToken: token, User: NewSessionUser(u)}, nil
}

// AuthenticateTelegram is VerifyInitData followed by Login.
func (s *AuthService) AuthenticateTelegram(ctx context.Context, raw string) (*LoginResult, error) {
	u, err := s.VerifyInitData(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.Login(u)
}

// ValidateToken resolves a session token to a still-active identity.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || u.TelegramID != claims.TelegramID {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: errors.New("user not found or inactive")}
	}
	return u, nil
}

// WebAppURL builds the Mini App link for the configured bot.
func (s *AuthService) WebAppURL(startParam string) (string, error) {
	if s.botUsername == "" {
		return "", errors.New("bot username not configured")
	}
	return telegram.WebAppURL(s.botUsername, startParam), nil
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error) {
	admin, err := repository.FindAdminByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &AuthError{Reason: AuthBadCredentials}
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		return nil, &AuthError{Reason: AuthBadCredentials}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, &AuthError{Reason: AuthBadCredentials}
	}

	now := s.now().UTC()
	if err := repository.TouchAdminLogin(ctx, s.db, admin.ID, now); err != nil {
		return nil, err
	}
	admin.LastLoginAt = &now

	token, err := s.tokens.IssueAdmin(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}
	return &AdminLoginResult{AccessToken: token, Admin: admin}, nil
}

// ValidateAdminToken resolves an admin token to an active admin.
func (s *AuthService) ValidateAdminToken(ctx context.Context, token string) (*models.Admin, error) {
	claims, err := s.tokens.ParseAdmin(token)
	if err != nil {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	id, err := claims.AdminID()
	if err != nil {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	admin, err := repository.FindAdminByID(ctx, s.db, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: err}
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		return nil, &AuthError{Reason: AuthTokenInvalid, Err: errors.New("admin is inactive")}
	}
	return admin, nil
}

// CreateAdmin stores a new admin with a bcrypt hash of password.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, firstName, lastName, role string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, invalid("email is required and password must be at least 8 characters")
	}
	if role == "" {
		role = "admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &models.Admin{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := repository.InsertAdmin(ctx, s.db, admin); err != nil {
		if repository.IsDuplicate(err) {
			return nil, invalid("admin %s already exists", email)
		}
		return nil, err
	}
	return admin, nil
}
