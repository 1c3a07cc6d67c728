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
	"storefront/testutil"
)

func strPtr(s string) *string { return &s }

func TestProductCreateDerivesSlugAndCountsCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	p, err := f.products.Create(ctx, ProductInput{
		Name:       strPtr("Crème Brûlée Blend"),
		Price:      money("14.90"),
		CategoryID: &f.category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "creme-brulee-blend", p.Slug)
	assert.Equal(t, "USD", p.Currency)

	_, err = f.products.Create(ctx, ProductInput{
		Name:       strPtr("Creme Brulee Blend"),
		Price:      money("9.90"),
		CategoryID: &f.category.ID,
	})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "duplicate slug accepted: %v", err)

	cat, err := repository.FindCategoryByID(ctx, f.db, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.ProductCount)

	missing := int64(999)
	_, err = f.products.Create(ctx, ProductInput{Name: strPtr("Orphan"), Price: money("1"), CategoryID: &missing})
	assert.True(t, errors.As(err, &verr))
}

func TestProductListFiltersAndCaches(t *testing.T) {
	ctx := context.Background()
	c, mr := testutil.NewCache(t)
	f := newFixture(t, c)
	f.product(t, "Ethiopia Yirgacheffe", "18.00", 5)
	f.product(t, "Colombia Supremo", "12.00", 5)
	f.product(t, "Decaf House", "9.00", 5)

	floor := money("10")
	page, err := f.products.List(ctx, models.ProductQuery{MinPrice: floor, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Colombia Supremo", page.Products[0].Name)
	assert.Equal(t, "Ethiopia Yirgacheffe", page.Products[1].Name)
	require.NotNil(t, page.Products[0].Category)
	assert.Equal(t, "coffee", page.Products[0].Category.Slug)
	assert.NotEmpty(t, mr.Keys())

	page, err = f.products.List(ctx, models.ProductQuery{Search: "decaf"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, int64(1), page.Total)
}

func TestProductGetCountsViewsAndAdmissionInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	c, mr := testutil.NewCache(t)
	f := newFixture(t, c)
	p := f.product(t, "Beans", "10.00", 5)

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.True(t, mr.Exists(cache.ProductKey(p.ID)))

	_, err = f.orders.Create(ctx, f.user(t, 1), orderFor(OrderLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ProductKey(p.ID)))

	got, err = f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, int64(2), got.ViewCount)
}

func TestProductReviewsReplaceEarlierReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 5)

	_, err := f.products.AddReview(ctx, p.ID, 1, 2, "meh")
	require.NoError(t, err)
	_, err = f.products.AddReview(ctx, p.ID, 2, 4, "good")
	require.NoError(t, err)
	updated, err := f.products.AddReview(ctx, p.ID, 1, 5, "grew on me")
	require.NoError(t, err)

	assert.Equal(t, 2, updated.ReviewCount)
	assert.InDelta(t, 4.5, updated.Rating, 0.001)
	assert.Len(t, updated.Reviews, 2)

	_, err = f.products.AddReview(ctx, p.ID, 3, 6, "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	_, err = f.products.AddReview(ctx, 999, 3, 5, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	p := f.product(t, "Beans", "10.00", 5)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	_, err := f.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.products.Delete(ctx, p.ID), ErrNotFound)
}

func TestCategoryTree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cats := NewCategoryService(f.db, f.cache)

	child, err := cats.Create(ctx, CategoryInput{Name: "Espresso", ParentID: &f.category.ID})
	require.NoError(t, err)
	assert.Equal(t, "espresso", child.Slug)

	tree, err := cats.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "coffee", tree[0].Slug)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "espresso", tree[0].Children[0].Slug)

	missing := int64(999)
	_, err = cats.Create(ctx, CategoryInput{Name: "Lost", ParentID: &missing})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
