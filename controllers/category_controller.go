package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/services"
)

type CategoryController struct {
	categories *services.CategoryService
}

func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// List returns the active categories, nested when tree=true.
func (h *CategoryController) List(c *gin.Context) {
	if c.Query("tree") == "true" {
		tree, err := h.categories.Tree(c.Request.Context())
		if err != nil {
			respondError(c, err, "Category")
			return
		}
		c.JSON(http.StatusOK, tree)
		return
	}
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryController) GetBySlug(c *gin.Context) {
	category, err := h.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryController) Create(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.categories.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryController) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryController) Children(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	children, err := h.categories.Children(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, children)
}

func (h *CategoryController) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	var input services.CategoryUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "Category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Category")
		return
	}
	c.Status(http.StatusNoContent)
}
