package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/middlewares"
	"storefront/models"
	"storefront/services"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (h *ProductController) List(c *gin.Context) {
	var query models.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &query.MinPrice, "maxPrice": &query.MaxPrice} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
			return
		}
		*dst = &v
	}

	page, err := h.products.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductController) Featured(c *gin.Context) {
	products, err := h.products.Featured(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductController) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductController) GetBySlug(c *gin.Context) {
	p, err := h.products.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductController) Related(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}
	products, err := h.products.Related(c.Request.Context(), id, queryInt(c, "limit", 5))
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductController) AddReview(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}
	var request struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.products.AddReview(c.Request.Context(), id, u.ID, request.Rating, request.Comment)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductController) Create(c *gin.Context) {
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.products.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductController) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.products.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "Product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Product")
		return
	}
	c.Status(http.StatusNoContent)
}
