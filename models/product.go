package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Review struct {
	UserID    int64     `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Product struct {
	ID                 int64               `json:"id" db:"id"`
	Name               string              `json:"name" db:"name"`
	Slug               string              `json:"slug" db:"slug"`
	Description        string              `json:"description" db:"description"`
	ShortDescription   string              `json:"shortDescription,omitempty" db:"short_description"`
	Price              decimal.Decimal     `json:"price" db:"price"`
	ComparePrice       decimal.NullDecimal `json:"comparePrice" db:"compare_price"`
	DiscountPercentage int                 `json:"discountPercentage" db:"discount_percentage"`
	Currency           string              `json:"currency" db:"currency"`
	CategoryID         int64               `json:"categoryId" db:"category_id"`
	Category           *CategoryRef        `json:"category,omitempty" db:"-"`
	Thumbnail          string              `json:"thumbnail,omitempty" db:"thumbnail"`
	Images             StringList          `json:"images" db:"images"`
	Tags               StringList          `json:"tags" db:"tags"`
	Stock              int                 `json:"stock" db:"stock"`
	TrackStock         bool                `json:"trackStock" db:"track_stock"`
	IsActive           bool                `json:"isActive" db:"is_active"`
	IsFeatured         bool                `json:"isFeatured" db:"is_featured"`
	SortOrder          int                 `json:"sortOrder" db:"sort_order"`
	ViewCount          int64               `json:"viewCount" db:"view_count"`
	OrderCount         int64               `json:"orderCount" db:"order_count"`
	Rating             float64             `json:"rating" db:"rating"`
	ReviewCount        int                 `json:"reviewCount" db:"review_count"`
	Reviews            []Review            `json:"reviews,omitempty" db:"-"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time           `json:"updatedAt" db:"updated_at"`
}

// SnapshotThumbnail is the image copied onto order items.
func (p *Product) SnapshotThumbnail() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

type ProductQuery struct {
	Page      int              `form:"page"`
	Limit     int              `form:"limit"`
	Category  int64            `form:"category"`
	Search    string           `form:"search"`
	MinPrice  *decimal.Decimal `form:"-"`
	MaxPrice  *decimal.Decimal `form:"-"`
	SortBy    string           `form:"sortBy"`
	SortOrder string           `form:"sortOrder"`
	Featured  *bool            `form:"featured"`
	Tag       string           `form:"tag"`
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

type ProductStats struct {
	TotalProducts    int64 `json:"totalProducts" db:"total_products"`
	ActiveProducts   int64 `json:"activeProducts" db:"active_products"`
	FeaturedProducts int64 `json:"featuredProducts" db:"featured_products"`
	OutOfStock       int64 `json:"outOfStock" db:"out_of_stock"`
}
