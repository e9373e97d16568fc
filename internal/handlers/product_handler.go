package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
)

// ProductHandler handles product catalogue requests
type ProductHandler struct {
	products services.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /api/v1/products?search=&active=true
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		ShopID:     middleware.GetShopID(c),
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: c.Query("active") == "true",
		Page:       pageFromQuery(c),
	}

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, products, total, filter.Page)
}

// GetProduct handles GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), middleware.GetShopID(c), id)
	if err != nil {
		respondResourceError(c, "Product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondResourceError(c, "Product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondResourceError(c, "Product", err)
		return
	}
	c.Status(http.StatusNoContent)
}
