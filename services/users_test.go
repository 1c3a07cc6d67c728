package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
	"storefront/telegram"
	"storefront/testutil"
)

func TestCartMergesSameProductAndVariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	u := f.user(t, 1)

	_, err := f.users.AddToCart(ctx, u.ID, models.CartItem{ProductID: 10, Quantity: 1, SelectedVariant: "250g"})
	require.NoError(t, err)
	_, err = f.users.AddToCart(ctx, u.ID, models.CartItem{ProductID: 10, Quantity: 2, SelectedVariant: "250g"})
	require.NoError(t, err)
	updated, err := f.users.AddToCart(ctx, u.ID, models.CartItem{ProductID: 10, Quantity: 1, SelectedVariant: "1kg"})
	require.NoError(t, err)

	require.Len(t, updated.Cart.Items, 2)
	assert.Equal(t, 3, updated.Cart.Items[0].Quantity)
	assert.Equal(t, "1kg", updated.Cart.Items[1].SelectedVariant)
	assert.NotNil(t, updated.Cart.UpdatedAt)

	updated, err = f.users.RemoveFromCart(ctx, u.ID, 10, "250g")
	require.NoError(t, err)
	require.Len(t, updated.Cart.Items, 1)
	assert.Equal(t, "1kg", updated.Cart.Items[0].SelectedVariant)

	updated, err = f.users.ClearCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Cart.Items)

	_, err = f.users.AddToCart(ctx, u.ID, models.CartItem{ProductID: 10, Quantity: 0})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFavoritesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	u := f.user(t, 1)

	_, err := f.users.AddFavorite(ctx, u.ID, 3)
	require.NoError(t, err)
	updated, err := f.users.AddFavorite(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, updated.FavoriteProducts)

	updated, err = f.users.RemoveFavorite(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, updated.FavoriteProducts)
}

func TestUserLookupsUseCache(t *testing.T) {
	ctx := context.Background()
	c, mr := testutil.NewCache(t)
	f := newFixture(t, c)

	u, err := f.users.FindOrCreate(ctx, telegram.WebAppUser{ID: 42, FirstName: "Ada"})
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.UserByTelegramKey(42)))
	assert.True(t, mr.Exists(cache.UserByIDKey(u.ID)))

	// A stale cached projection wins until it is forgotten.
	_, err = f.db.Exec(`UPDATE users SET first_name = 'Changed' WHERE id = ?`, u.ID)
	require.NoError(t, err)
	cached, err := f.users.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ada", cached.FirstName)

	f.users.Forget(ctx, u)
	fresh, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", fresh.FirstName)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	u := f.user(t, 1)

	name := "Grace"
	prefs := models.Preferences{Notifications: false, Language: "fr", Currency: "EUR"}
	updated, err := f.users.UpdateProfile(ctx, u.ID, repository.UserProfileUpdate{FirstName: &name, Preferences: &prefs})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, prefs, updated.Preferences)

	_, err = f.users.UpdateProfile(ctx, 9999, repository.UserProfileUpdate{FirstName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStats(t *testing.T) {
	f := newFixture(t, nil)
	f.user(t, 1)
	f.user(t, 2)

	stats, err := f.users.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
}

func TestUserListPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for id := int64(1); id <= 3; id++ {
		f.user(t, id)
	}

	page, err := f.users.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Users, 2)
	assert.Equal(t, int64(3), page.Users[0].TelegramID)

	page, err = f.users.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, int64(1), page.Users[0].TelegramID)
}
