package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/models"
)

const userColumns = `id, telegram_id, first_name, last_name, username, language_code, photo_url,
	is_active, is_premium, preferences, cart_updated_at, last_active_at, total_orders, total_spent,
	created_at, updated_at`

func FindUserByTelegramID(ctx context.Context, q sqlx.ExtContext, telegramID int64) (*models.User, error) {
	var u models.User
	if err := get(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID); err != nil {
		return nil, err
	}
	return &u, nil
}

func FindUserByID(ctx context.Context, q sqlx.ExtContext, id int64) (*models.User, error) {
	var u models.User
	if err := get(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoadUserRelations fills the cart and favorites of u.
func LoadUserRelations(ctx context.Context, q sqlx.ExtContext, u *models.User) error {
	items := []models.CartItem{}
	if err := selectAll(ctx, q, &items,
		`SELECT product_id, quantity, selected_variant FROM user_cart_items WHERE user_id = ? ORDER BY position`, u.ID); err != nil {
		return err
	}
	favorites := []int64{}
	if err := selectAll(ctx, q, &favorites,
		`SELECT product_id FROM user_favorites WHERE user_id = ? ORDER BY created_at, product_id`, u.ID); err != nil {
		return err
	}
	u.Cart = models.Cart{Items: items, UpdatedAt: u.CartUpdatedAt}
	u.FavoriteProducts = favorites
	return nil
}

func InsertUser(ctx context.Context, q sqlx.ExtContext, u *models.User) error {
	id, err := insertID(ctx, q, `INSERT INTO users (telegram_id, first_name, last_name, username, language_code,
		photo_url, is_active, is_premium, preferences, last_active_at, total_orders, total_spent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		u.TelegramID, u.FirstName, u.LastName, u.Username, u.LanguageCode,
		u.PhotoURL, u.IsActive, u.IsPremium, u.Preferences, u.LastActiveAt, decimal.Zero, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func TouchUserActivity(ctx context.Context, q sqlx.ExtContext, id int64, at time.Time) error {
	return execOne(ctx, q, `UPDATE users SET last_active_at = ? WHERE id = ?`, at, id)
}

// UserProfileUpdate carries the fields a user may change about themselves.
type UserProfileUpdate struct {
	FirstName    *string
	LastName     *string
	LanguageCode *string
	Preferences  *models.Preferences
}

func UpdateUserProfile(ctx context.Context, q sqlx.ExtContext, u *models.User, upd UserProfileUpdate, at time.Time) error {
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.LanguageCode != nil {
		u.LanguageCode = *upd.LanguageCode
	}
	if upd.Preferences != nil {
		u.Preferences = *upd.Preferences
	}
	u.UpdatedAt = at
	return execOne(ctx, q, `UPDATE users SET first_name = ?, last_name = ?, language_code = ?, preferences = ?, updated_at = ?
		WHERE id = ?`, u.FirstName, u.LastName, u.LanguageCode, u.Preferences, u.UpdatedAt, u.ID)
}

// ReplaceUserCart overwrites the stored cart with items, in order.
func ReplaceUserCart(ctx context.Context, q sqlx.ExtContext, userID int64, items []models.CartItem, at time.Time) error {
	if _, err := exec(ctx, q, `DELETE FROM user_cart_items WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := exec(ctx, q, `INSERT INTO user_cart_items (user_id, position, product_id, quantity, selected_variant)
			VALUES (?, ?, ?, ?, ?)`, userID, i, item.ProductID, item.Quantity, item.SelectedVariant); err != nil {
			return err
		}
	}
	_, err := exec(ctx, q, `UPDATE users SET cart_updated_at = ?, updated_at = ? WHERE id = ?`, at, at, userID)
	return err
}

func AddFavorite(ctx context.Context, q sqlx.ExtContext, userID, productID int64, at time.Time) error {
	_, err := exec(ctx, q, `INSERT INTO user_favorites (user_id, product_id, created_at) VALUES (?, ?, ?)`,
		userID, productID, at)
	if IsDuplicate(err) {
		return nil
	}
	return err
}

func RemoveFavorite(ctx context.Context, q sqlx.ExtContext, userID, productID int64) error {
	_, err := exec(ctx, q, `DELETE FROM user_favorites WHERE user_id = ? AND product_id = ?`, userID, productID)
	return err
}

// AddUserOrderTotals bumps the aggregate counters after an admitted order.
// The sum is taken in Go since sqlite would add the TEXT money column as a
// float. Run it inside the admission transaction.
func AddUserOrderTotals(ctx context.Context, q sqlx.ExtContext, userID int64, total decimal.Decimal) error {
	var spent decimal.Decimal
	if err := get(ctx, q, &spent, `SELECT total_spent FROM users WHERE id = ?`, userID); err != nil {
		return err
	}
	return execOne(ctx, q, `UPDATE users SET total_orders = total_orders + 1, total_spent = ? WHERE id = ?`,
		spent.Add(total).Round(2), userID)
}

// ListUsers returns one page of users, newest first, without carts.
func ListUsers(ctx context.Context, q sqlx.ExtContext, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := get(ctx, q, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	if err := selectAll(ctx, q, &users, `SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

type userStatsRow struct {
	TotalUsers   int64               `db:"total_users"`
	ActiveUsers  int64               `db:"active_users"`
	PremiumUsers int64               `db:"premium_users"`
	TotalSpent   decimal.NullDecimal `db:"total_spent"`
	TotalOrders  int64               `db:"total_orders"`
}

// UserStats counts users; active means seen after activeSince.
func UserStats(ctx context.Context, q sqlx.ExtContext, activeSince time.Time) (models.UserStats, error) {
	var row userStatsRow
	err := get(ctx, q, &row, `SELECT
			COUNT(*) AS total_users,
			COALESCE(SUM(CASE WHEN last_active_at >= ? THEN 1 ELSE 0 END), 0) AS active_users,
			COALESCE(SUM(CASE WHEN is_premium THEN 1 ELSE 0 END), 0) AS premium_users,
			ROUND(SUM(total_spent), 2) AS total_spent,
			COALESCE(SUM(total_orders), 0) AS total_orders
		FROM users`, activeSince)
	if err != nil {
		return models.UserStats{}, err
	}
	stats := models.UserStats{
		TotalUsers:   row.TotalUsers,
		ActiveUsers:  row.ActiveUsers,
		PremiumUsers: row.PremiumUsers,
	}
	if row.TotalUsers > 0 {
		n := decimal.NewFromInt(row.TotalUsers)
		stats.AvgTotalSpent = row.TotalSpent.Decimal.Div(n).Round(2)
		stats.AvgTotalOrders = float64(row.TotalOrders) / float64(row.TotalUsers)
	}
	return stats, nil
}
