package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
	"storefront/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductService struct {
	db              *sqlx.DB
	cache           cache.Cache
	defaultCurrency string
	now             func() time.Time
}

func NewProductService(db *sqlx.DB, c cache.Cache, defaultCurrency string) *ProductService {
	return &ProductService{db: db, cache: c, defaultCurrency: defaultCurrency, now: time.Now}
}

func normalisePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func productListKey(q models.ProductQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%slist:p=%d:l=%d:c=%d:s=%s:sort=%s:%s:t=%s", cache.PrefixProducts,
		q.Page, q.Limit, q.Category, strings.ToLower(q.Search), q.SortBy, q.SortOrder, q.Tag)
	if q.MinPrice != nil {
		fmt.Fprintf(&b, ":min=%s", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		fmt.Fprintf(&b, ":max=%s", q.MaxPrice.String())
	}
	if q.Featured != nil {
		fmt.Fprintf(&b, ":f=%t", *q.Featured)
	}
	return b.String()
}

func (s *ProductService) List(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	q.Page, q.Limit = normalisePage(q.Page, q.Limit)

	key := productListKey(q)
	var page models.ProductPage
	if cache.GetJSON(ctx, s.cache, key, &page) {
		return &page, nil
	}

	products, total, err := repository.ListProducts(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := repository.AttachCategories(ctx, s.db, products); err != nil {
		return nil, err
	}
	page = models.ProductPage{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}
	cache.SetJSON(ctx, s.cache, key, page, cache.ProductListTTL)
	return &page, nil
}

func (s *ProductService) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	_, limit = normalisePage(1, limit)
	key := fmt.Sprintf("%sfeatured:%d", cache.PrefixProducts, limit)

	var products []models.Product
	if cache.GetJSON(ctx, s.cache, key, &products) {
		return products, nil
	}
	products, err := repository.FeaturedProducts(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}
	if err := repository.AttachCategories(ctx, s.db, products); err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, products, cache.FeaturedTTL)
	return products, nil
}

// Get returns one product with its reviews and counts the view.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	if err := repository.IncrementViewCount(ctx, s.db, id); err != nil {
		log.Printf("Failed to count view of product %d: %v", id, err)
	}

	var p models.Product
	if cache.GetJSON(ctx, s.cache, cache.ProductKey(id), &p) {
		return &p, nil
	}
	found, err := repository.FindProductByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, found); err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, cache.ProductKey(id), found, cache.ProductTTL)
	return found, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := repository.FindActiveProductBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) decorate(ctx context.Context, p *models.Product) error {
	one := []models.Product{*p}
	if err := repository.AttachCategories(ctx, s.db, one); err != nil {
		return err
	}
	p.Category = one[0].Category
	reviews, err := repository.ListReviews(ctx, s.db, p.ID)
	if err != nil {
		return err
	}
	p.Reviews = reviews
	return nil
}

func (s *ProductService) Related(ctx context.Context, id int64, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 20 {
		limit = 5
	}
	p, err := repository.FindProductByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	products, err := repository.RelatedProducts(ctx, s.db, p, limit)
	if err != nil {
		return nil, err
	}
	if err := repository.AttachCategories(ctx, s.db, products); err != nil {
		return nil, err
	}
	return products, nil
}

// AddReview records userID's review, replacing an earlier one.
func (s *ProductService) AddReview(ctx context.Context, productID, userID int64, rating int, comment string) (*models.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := repository.FindProductByID(ctx, tx, productID); err != nil {
			return err
		}
		return repository.UpsertReview(ctx, tx, productID, models.Review{
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Del(ctx, cache.ProductKey(productID))
	s.cache.DelPrefix(ctx, cache.PrefixProducts)

	p, err := repository.FindProductByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProductInput is the catalog payload for create and update. Nil fields
// are left unchanged on update.
type ProductInput struct {
	Name               *string          `json:"name"`
	Slug               *string          `json:"slug"`
	Description        *string          `json:"description"`
	ShortDescription   *string          `json:"shortDescription"`
	Price              *decimal.Decimal `json:"price"`
	ComparePrice       *decimal.Decimal `json:"comparePrice"`
	DiscountPercentage *int             `json:"discountPercentage"`
	Currency           *string          `json:"currency"`
	CategoryID         *int64           `json:"categoryId"`
	Thumbnail          *string          `json:"thumbnail"`
	Images             []string         `json:"images"`
	Tags               []string         `json:"tags"`
	Stock              *int             `json:"stock"`
	TrackStock         *bool            `json:"trackStock"`
	IsActive           *bool            `json:"isActive"`
	IsFeatured         *bool            `json:"isFeatured"`
	SortOrder          *int             `json:"sortOrder"`
}

func (in ProductInput) apply(p *models.Product) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		p.Slug = utils.Slugify(*in.Slug)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ComparePrice != nil {
		p.ComparePrice = decimal.NewNullDecimal(*in.ComparePrice)
	}
	if in.DiscountPercentage != nil {
		p.DiscountPercentage = *in.DiscountPercentage
	}
	if in.Currency != nil {
		p.Currency = strings.ToUpper(*in.Currency)
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.Thumbnail != nil {
		p.Thumbnail = *in.Thumbnail
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.TrackStock != nil {
		p.TrackStock = *in.TrackStock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}

	switch {
	case p.Name == "":
		return invalid("name is required")
	case p.Price.IsNegative():
		return invalid("price must not be negative")
	case p.Stock < 0:
		return invalid("stock must not be negative")
	case p.CategoryID == 0:
		return invalid("categoryId is required")
	case p.DiscountPercentage < 0 || p.DiscountPercentage > 100:
		return invalid("discountPercentage must be between 0 and 100")
	}
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	if p.Slug == "" {
		return invalid("name does not produce a usable slug")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	now := s.now().UTC()
	p := &models.Product{
		Currency:   s.defaultCurrency,
		TrackStock: true,
		IsActive:   true,
		Images:     models.StringList{},
		Tags:       models.StringList{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, invalid("price is required")
	}

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.checkCatalogRefs(ctx, tx, p); err != nil {
			return err
		}
		if err := repository.InsertProduct(ctx, tx, p); err != nil {
			return err
		}
		return repository.RefreshCategoryProductCount(ctx, tx, p.CategoryID)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx, p.ID)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	var p *models.Product
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if p, err = repository.FindProductByID(ctx, tx, id); err != nil {
			return err
		}
		oldCategory := p.CategoryID
		if in.Name != nil && in.Slug == nil {
			p.Slug = ""
		}
		if err := in.apply(p); err != nil {
			return err
		}
		p.UpdatedAt = s.now().UTC()
		if err := s.checkCatalogRefs(ctx, tx, p); err != nil {
			return err
		}
		if err := repository.UpdateProduct(ctx, tx, p); err != nil {
			return err
		}
		if err := repository.RefreshCategoryProductCount(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		if oldCategory != p.CategoryID {
			return repository.RefreshCategoryProductCount(ctx, tx, oldCategory)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx, id)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		p, err := repository.FindProductByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := repository.DeleteProduct(ctx, tx, id); err != nil {
			return err
		}
		return repository.RefreshCategoryProductCount(ctx, tx, p.CategoryID)
	})
	if err != nil {
		return err
	}
	s.invalidateCatalog(ctx, id)
	return nil
}

func (s *ProductService) checkCatalogRefs(ctx context.Context, tx *sqlx.Tx, p *models.Product) error {
	if _, err := repository.FindCategoryByID(ctx, tx, p.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("category %d does not exist", p.CategoryID)
		}
		return err
	}
	taken, err := repository.SlugTaken(ctx, tx, "products", p.Slug, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return invalid("product with slug %q already exists", p.Slug)
	}
	return nil
}

func (s *ProductService) Stats(ctx context.Context) (models.ProductStats, error) {
	return repository.ProductStats(ctx, s.db)
}

func (s *ProductService) invalidateCatalog(ctx context.Context, id int64) {
	s.cache.Del(ctx, cache.ProductKey(id))
	s.cache.DelPrefix(ctx, cache.PrefixProducts)
	s.cache.DelPrefix(ctx, cache.PrefixCategories)
}

// ForgetProducts drops cached product entries after stock or counters
// changed outside the catalog.
func (s *ProductService) ForgetProducts(ctx context.Context, ids ...int64) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.ProductKey(id))
	}
	if len(keys) > 0 {
		s.cache.Del(ctx, keys...)
	}
	s.cache.DelPrefix(ctx, cache.PrefixProducts)
}
