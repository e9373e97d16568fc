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

// CustomerHandler handles customer HTTP requests
type CustomerHandler struct {
	customers services.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// ListCustomers lists the customers of the caller's shop
// @Summary List customers
// @Tags customers
// @Produce json
// @Param search query string false "Name, GSTIN, phone or party code"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	filter := repository.CustomerFilter{
		ShopID: middleware.GetShopID(c),
		Search: strings.TrimSpace(c.Query("search")),
		Page:   pageFromQuery(c),
	}

	customers, total, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, customers, total, filter.Page)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.Get(c.Request.Context(), middleware.GetShopID(c), id)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// CreateCustomer creates a customer
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body models.CustomerRequest true "Customer"
// @Success 201 {object} models.Customer
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id. Customers with
// invoices cannot be deleted.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.customers.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.Status(http.StatusNoContent)
}
