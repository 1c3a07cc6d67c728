package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

type Preferences struct {
	Notifications bool   `json:"notifications"`
	Language      string `json:"language,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

func (p *Preferences) Scan(src any) error { return scanJSON(src, p) }

func (p Preferences) Value() (driver.Value, error) { return valueJSON(p) }

type CartItem struct {
	ProductID       int64  `json:"productId" db:"product_id"`
	Quantity        int    `json:"quantity" db:"quantity"`
	SelectedVariant string `json:"selectedVariant,omitempty" db:"selected_variant"`
}

type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// User is the application identity, keyed by the immutable Telegram user id.
type User struct {
	ID               int64           `json:"id" db:"id"`
	TelegramID       int64           `json:"telegramId" db:"telegram_id"`
	FirstName        string          `json:"firstName" db:"first_name"`
	LastName         string          `json:"lastName,omitempty" db:"last_name"`
	Username         string          `json:"username,omitempty" db:"username"`
	LanguageCode     string          `json:"languageCode,omitempty" db:"language_code"`
	PhotoURL         string          `json:"photoUrl,omitempty" db:"photo_url"`
	IsActive         bool            `json:"isActive" db:"is_active"`
	IsPremium        bool            `json:"isPremium" db:"is_premium"`
	Preferences      Preferences     `json:"preferences" db:"preferences"`
	Cart             Cart            `json:"cart" db:"-"`
	CartUpdatedAt    *time.Time      `json:"-" db:"cart_updated_at"`
	FavoriteProducts []int64         `json:"favoriteProducts" db:"-"`
	LastActiveAt     time.Time       `json:"lastActiveAt" db:"last_active_at"`
	TotalOrders      int             `json:"totalOrders" db:"total_orders"`
	TotalSpent       decimal.Decimal `json:"totalSpent" db:"total_spent"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// Owner projects the display fields joined onto orders.
func (u *User) Owner() *OrderOwner {
	return &OrderOwner{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

type UserStats struct {
	TotalUsers     int64           `json:"totalUsers" db:"total_users"`
	ActiveUsers    int64           `json:"activeUsers" db:"active_users"`
	PremiumUsers   int64           `json:"premiumUsers" db:"premium_users"`
	AvgTotalSpent  decimal.Decimal `json:"avgTotalSpent" db:"-"`
	AvgTotalOrders float64         `json:"avgTotalOrders" db:"-"`
}
