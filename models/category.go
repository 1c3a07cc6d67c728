package models

import "time"

type Category struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description,omitempty" db:"description"`
	Image        string    `json:"image,omitempty" db:"image"`
	ParentID     *int64    `json:"parentId,omitempty" db:"parent_id"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	SortOrder    int       `json:"sortOrder" db:"sort_order"`
	ProductCount int       `json:"productCount" db:"product_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
