package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/cache"
	"storefront/models"
	"storefront/repository"
	"storefront/utils"
)

type CategoryService struct {
	db    *sqlx.DB
	cache cache.Cache
	now   func() time.Time
}

func NewCategoryService(db *sqlx.DB, c cache.Cache) *CategoryService {
	return &CategoryService{db: db, cache: c, now: time.Now}
}

// CategoryNode is a category with its active children.
type CategoryNode struct {
	models.Category
	Children []*CategoryNode `json:"children"`
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	key := cache.PrefixCategories + "all"
	var categories []models.Category
	if cache.GetJSON(ctx, s.cache, key, &categories) {
		return categories, nil
	}
	categories, err := repository.ListActiveCategories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, categories, cache.CategoriesTTL)
	return categories, nil
}

// Tree arranges the active categories under their parents. Categories whose
// parent is inactive or missing become roots.
func (s *CategoryService) Tree(ctx context.Context) ([]*CategoryNode, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make(map[int64]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}
	roots := []*CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	key := cache.PrefixCategories + "slug:" + slug
	var c models.Category
	if cache.GetJSON(ctx, s.cache, key, &c) {
		return &c, nil
	}
	found, err := repository.FindCategoryBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, found, cache.CategoriesTTL)
	return found, nil
}

// Get returns a category by id, active or not.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	key := fmt.Sprintf("%sid:%d", cache.PrefixCategories, id)
	var c models.Category
	if cache.GetJSON(ctx, s.cache, key, &c) {
		return &c, nil
	}
	found, err := repository.FindCategoryByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, found, cache.CategoriesTTL)
	return found, nil
}

// Children lists the active direct subcategories of parentID.
func (s *CategoryService) Children(ctx context.Context, parentID int64) ([]models.Category, error) {
	key := fmt.Sprintf("%schildren:%d", cache.PrefixCategories, parentID)
	var children []models.Category
	if cache.GetJSON(ctx, s.cache, key, &children) {
		return children, nil
	}
	if _, err := repository.FindCategoryByID(ctx, s.db, parentID); err != nil {
		return nil, err
	}
	children, err := repository.ListChildCategories(ctx, s.db, parentID)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, children, cache.CategoriesTTL)
	return children, nil
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ParentID    *int64 `json:"parentId"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	now := s.now().UTC()
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        utils.Slugify(in.Slug),
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		IsActive:    true,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	if c.Name == "" || c.Slug == "" {
		return nil, invalid("name is required")
	}

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if c.ParentID != nil {
			if _, err := repository.FindCategoryByID(ctx, tx, *c.ParentID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalid("parent category %d does not exist", *c.ParentID)
				}
				return err
			}
		}
		taken, err := repository.SlugTaken(ctx, tx, "categories", c.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflict("category with slug %q already exists", c.Slug)
		}
		return repository.InsertCategory(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	s.cache.DelPrefix(ctx, cache.PrefixCategories)
	return c, nil
}

// CategoryUpdate changes only the fields that are set. A nil ParentID keeps
// the parent; use DetachParent to make the category a root.
type CategoryUpdate struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Description  *string `json:"description"`
	Image        *string `json:"image"`
	ParentID     *int64  `json:"parentId"`
	DetachParent bool    `json:"detachParent"`
	SortOrder    *int    `json:"sortOrder"`
	IsActive     *bool   `json:"isActive"`
}

func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryUpdate) (*models.Category, error) {
	var c *models.Category
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if c, err = repository.FindCategoryByID(ctx, tx, id); err != nil {
			return err
		}
		if in.Name != nil {
			if c.Name = strings.TrimSpace(*in.Name); c.Name == "" {
				return invalid("name is required")
			}
		}
		if in.Slug != nil {
			if c.Slug = utils.Slugify(*in.Slug); c.Slug == "" {
				return invalid("slug must contain letters or digits")
			}
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.Image != nil {
			c.Image = *in.Image
		}
		if in.SortOrder != nil {
			c.SortOrder = *in.SortOrder
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		switch {
		case in.DetachParent:
			c.ParentID = nil
		case in.ParentID != nil:
			if err := s.checkParent(ctx, tx, c.ID, *in.ParentID); err != nil {
				return err
			}
			c.ParentID = in.ParentID
		}

		taken, err := repository.SlugTaken(ctx, tx, "categories", c.Slug, c.ID)
		if err != nil {
			return err
		}
		if taken {
			return conflict("category with slug %q already exists", c.Slug)
		}
		c.UpdatedAt = s.now().UTC()
		return repository.UpdateCategory(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	s.cache.DelPrefix(ctx, cache.PrefixCategories)
	return c, nil
}

// checkParent refuses a parent that is missing, the category itself or one
// of its descendants.
func (s *CategoryService) checkParent(ctx context.Context, tx *sqlx.Tx, id, parentID int64) error {
	for next := &parentID; next != nil; {
		if *next == id {
			return invalid("category %d cannot be its own ancestor", id)
		}
		parent, err := repository.FindCategoryByID(ctx, tx, *next)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("parent category %d does not exist", *next)
		}
		if err != nil {
			return err
		}
		next = parent.ParentID
	}
	return nil
}

// Delete removes a category that no subcategory or product references.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := repository.FindCategoryByID(ctx, tx, id); err != nil {
			return err
		}
		children, products, err := repository.CountCategoryDependents(ctx, tx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return conflict("cannot delete category with subcategories")
		}
		if products > 0 {
			return conflict("cannot delete category with %d products", products)
		}
		return repository.DeleteCategory(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.cache.DelPrefix(ctx, cache.PrefixCategories)
	return nil
}
