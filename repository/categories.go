package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/models"
)

const categoryColumns = `id, name, slug, description, image, parent_id, is_active, sort_order, product_count,
	created_at, updated_at`

func ListActiveCategories(ctx context.Context, q sqlx.ExtContext) ([]models.Category, error) {
	categories := []models.Category{}
	err := selectAll(ctx, q, &categories, `SELECT `+categoryColumns+` FROM categories
		WHERE is_active = ? ORDER BY sort_order ASC, name ASC`, true)
	return categories, err
}

func FindCategoryByID(ctx context.Context, q sqlx.ExtContext, id int64) (*models.Category, error) {
	var c models.Category
	if err := get(ctx, q, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func FindCategoryBySlug(ctx context.Context, q sqlx.ExtContext, slug string) (*models.Category, error) {
	var c models.Category
	if err := get(ctx, q, &c, `SELECT `+categoryColumns+` FROM categories WHERE slug = ? AND is_active = ?`, slug, true); err != nil {
		return nil, err
	}
	return &c, nil
}

func InsertCategory(ctx context.Context, q sqlx.ExtContext, c *models.Category) error {
	id, err := insertID(ctx, q, `INSERT INTO categories (name, slug, description, image, parent_id, is_active,
		sort_order, product_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.IsActive, c.SortOrder, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// RefreshCategoryProductCount recomputes the denormalised active product count.
func RefreshCategoryProductCount(ctx context.Context, q sqlx.ExtContext, categoryID int64) error {
	_, err := exec(ctx, q, `UPDATE categories SET product_count =
		(SELECT COUNT(*) FROM products WHERE category_id = ? AND is_active = ?) WHERE id = ?`,
		categoryID, true, categoryID)
	return err
}

func ListChildCategories(ctx context.Context, q sqlx.ExtContext, parentID int64) ([]models.Category, error) {
	categories := []models.Category{}
	err := selectAll(ctx, q, &categories, `SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = ? AND is_active = ? ORDER BY sort_order ASC, name ASC`, parentID, true)
	return categories, err
}

// CountCategoryDependents reports how many categories and products still
// reference the category, active or not.
func CountCategoryDependents(ctx context.Context, q sqlx.ExtContext, id int64) (children, products int64, err error) {
	if err = get(ctx, q, &children, `SELECT COUNT(*) FROM categories WHERE parent_id = ?`, id); err != nil {
		return 0, 0, err
	}
	if err = get(ctx, q, &products, `SELECT COUNT(*) FROM products WHERE category_id = ?`, id); err != nil {
		return 0, 0, err
	}
	return children, products, nil
}

func UpdateCategory(ctx context.Context, q sqlx.ExtContext, c *models.Category) error {
	return execOne(ctx, q, `UPDATE categories SET name = ?, slug = ?, description = ?, image = ?, parent_id = ?,
		is_active = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.IsActive, c.SortOrder, c.UpdatedAt, c.ID)
}

func DeleteCategory(ctx context.Context, q sqlx.ExtContext, id int64) error {
	return execOne(ctx, q, `DELETE FROM categories WHERE id = ?`, id)
}
