package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
	"storefront/telegram"
)

// activeWindow is how recently a user must have been seen to count as active.
const activeWindow = 7 * 24 * time.Hour

// UserService owns identities, their carts and favorites. Reads go through
// the cache; every write refreshes both cached projections.
type UserService struct {
	db    *sqlx.DB
	cache cache.Cache
	now   func() time.Time
}

func NewUserService(db *sqlx.DB, c cache.Cache) *UserService {
	return &UserService{db: db, cache: c, now: time.Now}
}

func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	if cache.GetJSON(ctx, s.cache, cache.UserByTelegramKey(telegramID), &u) {
		return &u, nil
	}
	found, err := repository.FindUserByTelegramID(ctx, s.db, telegramID)
	if err != nil {
		return nil, err
	}
	if err := repository.LoadUserRelations(ctx, s.db, found); err != nil {
		return nil, err
	}
	s.store(ctx, found)
	return found, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if cache.GetJSON(ctx, s.cache, cache.UserByIDKey(id), &u) {
		return &u, nil
	}
	return s.load(ctx, id)
}

// load reads the user from the store and refreshes the cache.
func (s *UserService) load(ctx context.Context, id int64) (*models.User, error) {
	u, err := repository.FindUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := repository.LoadUserRelations(ctx, s.db, u); err != nil {
		return nil, err
	}
	s.store(ctx, u)
	return u, nil
}

// FindOrCreate provisions the identity on first sight and records activity
// otherwise. Two racing first logins resolve to the same record.
func (s *UserService) FindOrCreate(ctx context.Context, tu telegram.WebAppUser) (*models.User, error) {
	now := s.now().UTC()

	u, err := repository.FindUserByTelegramID(ctx, s.db, tu.ID)
	switch {
	case err == nil:
		if err := repository.TouchUserActivity(ctx, s.db, u.ID, now); err != nil {
			return nil, fmt.Errorf("touch user %d: %w", u.ID, err)
		}
		u.LastActiveAt = now
	case errors.Is(err, repository.ErrNotFound):
		u = &models.User{
			TelegramID:   tu.ID,
			FirstName:    tu.FirstName,
			LastName:     tu.LastName,
			Username:     tu.Username,
			LanguageCode: tu.LanguageCode,
			PhotoURL:     tu.PhotoURL,
			IsActive:     true,
			IsPremium:    tu.IsPremium,
			Preferences:  models.Preferences{Notifications: true, Language: tu.LanguageCode},
			LastActiveAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repository.InsertUser(ctx, s.db, u); err != nil {
			if !repository.IsDuplicate(err) {
				return nil, fmt.Errorf("create user: %w", err)
			}
			// Lost the race to a concurrent first login.
			if u, err = repository.FindUserByTelegramID(ctx, s.db, tu.ID); err != nil {
				return nil, err
			}
		}
	default:
		return nil, err
	}

	if err := repository.LoadUserRelations(ctx, s.db, u); err != nil {
		return nil, err
	}
	s.store(ctx, u)
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd repository.UserProfileUpdate) (*models.User, error) {
	u, err := repository.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if err := repository.UpdateUserProfile(ctx, s.db, u, upd, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// AddToCart merges quantity into an existing line for the same product and
// variant, or appends a new line.
func (s *UserService) AddToCart(ctx context.Context, userID int64, item models.CartItem) (*models.User, error) {
	if item.Quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	return s.mutateCart(ctx, userID, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ProductID == item.ProductID && items[i].SelectedVariant == item.SelectedVariant {
				items[i].Quantity += item.Quantity
				return items
			}
		}
		return append(items, item)
	})
}

func (s *UserService) RemoveFromCart(ctx context.Context, userID, productID int64, variant string) (*models.User, error) {
	return s.mutateCart(ctx, userID, func(items []models.CartItem) []models.CartItem {
		kept := items[:0]
		for _, it := range items {
			if it.ProductID == productID && it.SelectedVariant == variant {
				continue
			}
			kept = append(kept, it)
		}
		return kept
	})
}

func (s *UserService) ClearCart(ctx context.Context, userID int64) (*models.User, error) {
	return s.mutateCart(ctx, userID, func([]models.CartItem) []models.CartItem { return nil })
}

func (s *UserService) mutateCart(ctx context.Context, userID int64, fn func([]models.CartItem) []models.CartItem) (*models.User, error) {
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		u, err := repository.FindUserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := repository.LoadUserRelations(ctx, tx, u); err != nil {
			return err
		}
		return repository.ReplaceUserCart(ctx, tx, userID, fn(u.Cart.Items), s.now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *UserService) AddFavorite(ctx context.Context, userID, productID int64) (*models.User, error) {
	if err := repository.AddFavorite(ctx, s.db, userID, productID, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, productID int64) (*models.User, error) {
	if err := repository.RemoveFavorite(ctx, s.db, userID, productID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

type UserPage struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// List pages through every user for the admin console. It reads the store
// directly; the listing is never cached.
func (s *UserService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = normalisePage(page, limit)
	users, total, err := repository.ListUsers(ctx, s.db, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *UserService) Stats(ctx context.Context) (models.UserStats, error) {
	return repository.UserStats(ctx, s.db, s.now().UTC().Add(-activeWindow))
}

// Forget drops the cached projections of a user whose record changed
// outside this service.
func (s *UserService) Forget(ctx context.Context, u *models.User) {
	s.cache.Del(ctx, cache.UserByTelegramKey(u.TelegramID), cache.UserByIDKey(u.ID))
}

func (s *UserService) store(ctx context.Context, u *models.User) {
	cache.SetJSON(ctx, s.cache, cache.UserByTelegramKey(u.TelegramID), u, cache.UserTTL)
	cache.SetJSON(ctx, s.cache, cache.UserByIDKey(u.ID), u, cache.UserTTL)
}
