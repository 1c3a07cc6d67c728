package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestCategoryGetAndChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cats := NewCategoryService(f.db, f.cache)

	espresso, err := cats.Create(ctx, CategoryInput{Name: "Espresso", ParentID: &f.category.ID})
	require.NoError(t, err)
	_, err = cats.Create(ctx, CategoryInput{Name: "Decaf", ParentID: &f.category.ID, IsActive: boolPtr(false)})
	require.NoError(t, err)

	got, err := cats.Get(ctx, espresso.ID)
	require.NoError(t, err)
	assert.Equal(t, "espresso", got.Slug)

	children, err := cats.Children(ctx, f.category.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, espresso.ID, children[0].ID)

	_, err = cats.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cats.Children(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cats := NewCategoryService(f.db, f.cache)
	tea, err := cats.Create(ctx, CategoryInput{Name: "Tea"})
	require.NoError(t, err)
	green, err := cats.Create(ctx, CategoryInput{Name: "Green", ParentID: &tea.ID})
	require.NoError(t, err)

	// Cached reads must not survive the update.
	_, err = cats.Get(ctx, tea.ID)
	require.NoError(t, err)
	_, err = cats.List(ctx)
	require.NoError(t, err)

	updated, err := cats.Update(ctx, tea.ID, CategoryUpdate{Name: strPtr("Loose Leaf Tea"), Slug: strPtr("Loose Leaf")})
	require.NoError(t, err)
	assert.Equal(t, "loose-leaf", updated.Slug)

	got, err := cats.Get(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loose Leaf Tea", got.Name)
	bySlug, err := cats.GetBySlug(ctx, "loose-leaf")
	require.NoError(t, err)
	assert.Equal(t, tea.ID, bySlug.ID)

	_, err = cats.Update(ctx, green.ID, CategoryUpdate{Slug: strPtr("coffee")})
	var conflictErr *ConflictError
	assert.True(t, errors.As(err, &conflictErr), "got %v", err)

	_, err = cats.Update(ctx, tea.ID, CategoryUpdate{ParentID: &green.ID})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "got %v", err)
	_, err = cats.Update(ctx, tea.ID, CategoryUpdate{ParentID: &tea.ID})
	assert.True(t, errors.As(err, &verr), "got %v", err)

	moved, err := cats.Update(ctx, green.ID, CategoryUpdate{ParentID: &f.category.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, f.category.ID, *moved.ParentID)

	detached, err := cats.Update(ctx, green.ID, CategoryUpdate{DetachParent: true})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)

	_, err = cats.Update(ctx, 999, CategoryUpdate{Name: strPtr("Ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryDeleteRefusesDependents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cats := NewCategoryService(f.db, f.cache)
	tea, err := cats.Create(ctx, CategoryInput{Name: "Tea"})
	require.NoError(t, err)
	green, err := cats.Create(ctx, CategoryInput{Name: "Green", ParentID: &tea.ID})
	require.NoError(t, err)
	testutil.CreateProduct(t, f.db, green.ID, "Sencha", "12.00", 3)

	var conflictErr *ConflictError
	err = cats.Delete(ctx, tea.ID)
	require.True(t, errors.As(err, &conflictErr), "got %v", err)
	assert.Contains(t, conflictErr.Message, "subcategories")

	err = cats.Delete(ctx, green.ID)
	require.True(t, errors.As(err, &conflictErr), "got %v", err)
	assert.Contains(t, conflictErr.Message, "products")

	empty, err := cats.Create(ctx, CategoryInput{Name: "Herbal", ParentID: &tea.ID})
	require.NoError(t, err)
	_, err = cats.Get(ctx, empty.ID)
	require.NoError(t, err)

	require.NoError(t, cats.Delete(ctx, empty.ID))
	_, err = cats.Get(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, cats.Delete(ctx, empty.ID), ErrNotFound)
}
