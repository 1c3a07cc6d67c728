package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/models"
)

const productColumns = `id, name, slug, description, short_description, price, compare_price, discount_percentage,
	currency, category_id, thumbnail, images, tags, stock, track_stock, is_active, is_featured, sort_order,
	view_count, order_count, rating, review_count, created_at, updated_at`

func FindProductByID(ctx context.Context, q sqlx.ExtContext, id int64) (*models.Product, error) {
	var p models.Product
	if err := get(ctx, q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func FindActiveProductBySlug(ctx context.Context, q sqlx.ExtContext, slug string) (*models.Product, error) {
	var p models.Product
	if err := get(ctx, q, &p, `SELECT `+productColumns+` FROM products WHERE slug = ? AND is_active = ?`, slug, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func SlugTaken(ctx context.Context, q sqlx.ExtContext, table, slug string, exceptID int64) (bool, error) {
	var n int
	if err := get(ctx, q, &n, `SELECT COUNT(*) FROM `+table+` WHERE slug = ? AND id <> ?`, slug, exceptID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func InsertProduct(ctx context.Context, q sqlx.ExtContext, p *models.Product) error {
	id, err := insertID(ctx, q, `INSERT INTO products (name, slug, description, short_description, price, compare_price,
		discount_percentage, currency, category_id, thumbnail, images, tags, stock, track_stock, is_active, is_featured,
		sort_order, view_count, order_count, rating, review_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?, ?)`,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Price, p.ComparePrice,
		p.DiscountPercentage, p.Currency, p.CategoryID, p.Thumbnail, p.Images, p.Tags, p.Stock, p.TrackStock, p.IsActive,
		p.IsFeatured, p.SortOrder, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// UpdateProduct writes the catalog fields of p. Counters and stock owned by
// order admission are written only through their dedicated functions,
// except stock which catalog management may restock.
func UpdateProduct(ctx context.Context, q sqlx.ExtContext, p *models.Product) error {
	return execOne(ctx, q, `UPDATE products SET name = ?, slug = ?, description = ?, short_description = ?, price = ?,
		compare_price = ?, discount_percentage = ?, currency = ?, category_id = ?, thumbnail = ?, images = ?, tags = ?,
		stock = ?, track_stock = ?, is_active = ?, is_featured = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Price,
		p.ComparePrice, p.DiscountPercentage, p.Currency, p.CategoryID, p.Thumbnail, p.Images, p.Tags,
		p.Stock, p.TrackStock, p.IsActive, p.IsFeatured, p.SortOrder, p.UpdatedAt, p.ID)
}

func DeleteProduct(ctx context.Context, q sqlx.ExtContext, id int64) error {
	return execOne(ctx, q, `DELETE FROM products WHERE id = ?`, id)
}

// DecrementStock takes qty units if at least qty are available. It reports
// false, without changing anything, when the guard fails.
func DecrementStock(ctx context.Context, q sqlx.ExtContext, id int64, qty int, at time.Time) (bool, error) {
	res, err := exec(ctx, q, `UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, at, id, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func IncrementOrderCount(ctx context.Context, q sqlx.ExtContext, id int64, qty int) error {
	_, err := exec(ctx, q, `UPDATE products SET order_count = order_count + ? WHERE id = ?`, qty, id)
	return err
}

func IncrementViewCount(ctx context.Context, q sqlx.ExtContext, id int64) error {
	_, err := exec(ctx, q, `UPDATE products SET view_count = view_count + 1 WHERE id = ?`, id)
	return err
}

// likeEscaper makes user input match literally in a LIKE pattern. The escape
// character is '!' since a backslash is quoted differently by mysql and sqlite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var productSortColumns = map[string]string{
	"createdAt":  "created_at",
	"price":      "price",
	"rating":     "rating",
	"orderCount": "order_count",
	"viewCount":  "view_count",
	"name":       "name",
	"sortOrder":  "sort_order",
}

// ListProducts returns one page of active products matching query. query
// must already have Page and Limit normalised.
func ListProducts(ctx context.Context, q sqlx.ExtContext, query models.ProductQuery) ([]models.Product, int64, error) {
	where := []string{"is_active = ?"}
	args := []any{true}

	if query.Category != 0 {
		where = append(where, "category_id = ?")
		args = append(args, query.Category)
	}
	if query.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')")
		pattern := "%" + escapeLike(strings.ToLower(query.Search)) + "%"
		args = append(args, pattern, pattern)
	}
	// Prices are compared numerically; sqlite stores them as text.
	if query.MinPrice != nil {
		where = append(where, "CAST(price AS DECIMAL(12,2)) >= ?")
		args = append(args, query.MinPrice.InexactFloat64())
	}
	if query.MaxPrice != nil {
		where = append(where, "CAST(price AS DECIMAL(12,2)) <= ?")
		args = append(args, query.MaxPrice.InexactFloat64())
	}
	if query.Featured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, *query.Featured)
	}
	if query.Tag != "" {
		where = append(where, "tags LIKE ? ESCAPE '!'")
		args = append(args, `%"`+escapeLike(query.Tag)+`"%`)
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := get(ctx, q, &total, `SELECT COUNT(*) FROM products WHERE `+clause, args...); err != nil {
		return nil, 0, err
	}

	column, ok := productSortColumns[query.SortBy]
	if !ok {
		column = "created_at"
	}
	if column == "price" {
		column = "CAST(price AS DECIMAL(12,2))"
	}
	direction := "DESC"
	if query.SortOrder == "asc" {
		direction = "ASC"
	}

	products := []models.Product{}
	err := selectAll(ctx, q, &products,
		fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
			productColumns, clause, column, direction, direction),
		append(args, query.Limit, (query.Page-1)*query.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func FeaturedProducts(ctx context.Context, q sqlx.ExtContext, limit int) ([]models.Product, error) {
	products := []models.Product{}
	err := selectAll(ctx, q, &products, `SELECT `+productColumns+` FROM products
		WHERE is_active = ? AND is_featured = ? ORDER BY sort_order ASC, created_at DESC LIMIT ?`, true, true, limit)
	return products, err
}

func RelatedProducts(ctx context.Context, q sqlx.ExtContext, p *models.Product, limit int) ([]models.Product, error) {
	products := []models.Product{}
	err := selectAll(ctx, q, &products, `SELECT `+productColumns+` FROM products
		WHERE id <> ? AND category_id = ? AND is_active = ? ORDER BY order_count DESC, rating DESC LIMIT ?`,
		p.ID, p.CategoryID, true, limit)
	return products, err
}

// AttachCategories fills Category on each product with one query.
func AttachCategories(ctx context.Context, q sqlx.ExtContext, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}
	query, args, err := sqlx.In(`SELECT id, name, slug FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	var refs []models.CategoryRef
	rows, err := q.QueryxContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ref models.CategoryRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	byID := make(map[int64]models.CategoryRef, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}
	for i := range products {
		if ref, ok := byID[products[i].CategoryID]; ok {
			products[i].Category = &ref
		}
	}
	return nil
}

// UpsertReview replaces the user's review of the product and recomputes
// the product's rating and review count.
func UpsertReview(ctx context.Context, q sqlx.ExtContext, productID int64, r models.Review) error {
	if _, err := exec(ctx, q, `DELETE FROM product_reviews WHERE product_id = ? AND user_id = ?`, productID, r.UserID); err != nil {
		return err
	}
	if _, err := exec(ctx, q, `INSERT INTO product_reviews (product_id, user_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`, productID, r.UserID, r.Rating, r.Comment, r.CreatedAt); err != nil {
		return err
	}

	var agg struct {
		Avg   float64 `db:"avg_rating"`
		Count int     `db:"review_count"`
	}
	if err := get(ctx, q, &agg, `SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count
		FROM product_reviews WHERE product_id = ?`, productID); err != nil {
		return err
	}
	return execOne(ctx, q, `UPDATE products SET rating = ?, review_count = ? WHERE id = ?`, agg.Avg, agg.Count, productID)
}

func ListReviews(ctx context.Context, q sqlx.ExtContext, productID int64) ([]models.Review, error) {
	reviews := []models.Review{}
	err := selectAll(ctx, q, &reviews, `SELECT user_id, rating, comment, created_at FROM product_reviews
		WHERE product_id = ? ORDER BY created_at DESC`, productID)
	return reviews, err
}

func ProductStats(ctx context.Context, q sqlx.ExtContext) (models.ProductStats, error) {
	var stats models.ProductStats
	err := get(ctx, q, &stats, `SELECT
			COUNT(*) AS total_products,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_products,
			COALESCE(SUM(CASE WHEN is_featured THEN 1 ELSE 0 END), 0) AS featured_products,
			COALESCE(SUM(CASE WHEN track_stock AND stock <= 0 THEN 1 ELSE 0 END), 0) AS out_of_stock
		FROM products`)
	return stats, err
}
