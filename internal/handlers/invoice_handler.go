package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
)

// InvoiceHandler handles invoice HTTP requests
type InvoiceHandler struct {
	invoices  services.InvoiceService
	documents services.InvoiceDocumentService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices services.InvoiceService, documents services.InvoiceDocumentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, documents: documents}
}

// ListInvoices lists invoices of the caller's shop, newest first
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param status query string false "Generated, Paid or Cancelled"
// @Param customerId query string false "Customer ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param search query string false "Invoice number"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filter := repository.InvoiceFilter{
		ShopID: middleware.GetShopID(c),
		Search: strings.TrimSpace(c.Query("search")),
		Page:   pageFromQuery(c),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		if _, ok := models.ValidInvoiceTransitions[status]; !ok {
			_ = c.Error(middleware.NewBadRequestError("Invalid status", map[string]interface{}{"status": raw}))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("customerId"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Error(middleware.NewBadRequestError("Invalid customerId", nil))
			return
		}
		filter.CustomerID = &customerID
	}

	var err error
	if filter.From, err = parseDateQuery(c, "from"); err != nil {
		respondError(c, err)
		return
	}
	if filter.To, err = parseDateQuery(c, "to"); err != nil {
		respondError(c, err)
		return
	}

	invoices, total, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, invoices, total, filter.Page)
}

// NextNumber handles GET /api/v1/invoices/next-number
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	number, err := h.invoices.NextNumber(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoiceNo": number})
}

// PreviewInvoice computes an invoice without saving it
// @Summary Preview invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body models.CreateInvoiceRequest true "Invoice"
// @Success 200 {object} models.Invoice
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /invoices/preview [post]
func (h *InvoiceHandler) PreviewInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoices.Preview(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// CreateInvoice saves an invoice with its computed GST totals
// @Summary Create invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body models.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} models.Invoice
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoices.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, ok := h.loadInvoice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// DownloadPDF handles GET /api/v1/invoices/:id/pdf. ?download=true forces an
// attachment.
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	invoice, ok := h.loadInvoice(c)
	if !ok {
		return
	}

	doc, err := h.documents.RenderPDF(c.Request.Context(), invoice)
	if err != nil {
		respondResourceError(c, "Shop", err)
		return
	}
	sendDocument(c, doc, c.Query("download") != "true")
}

// PrintHTML handles GET /api/v1/invoices/:id/html
func (h *InvoiceHandler) PrintHTML(c *gin.Context) {
	invoice, ok := h.loadInvoice(c)
	if !ok {
		return
	}

	doc, err := h.documents.RenderHTML(c.Request.Context(), invoice)
	if err != nil {
		respondResourceError(c, "Shop", err)
		return
	}
	sendDocument(c, doc, true)
}

// MarkPaid handles POST /api/v1/invoices/:id/paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.MarkPaid(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondResourceError(c, "Invoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// CancelInvoice handles POST /api/v1/invoices/:id/cancel
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.Cancel(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondResourceError(c, "Invoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// EmailInvoice sends the invoice PDF to the customer
// @Summary Email invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body models.EmailInvoiceRequest false "Overrides"
// @Success 200 {object} gin.H
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/email [post]
func (h *InvoiceHandler) EmailInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.EmailInvoiceRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	to, err := h.invoices.Email(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondResourceError(c, "Invoice", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true, "to": to})
}

func (h *InvoiceHandler) loadInvoice(c *gin.Context) (*models.Invoice, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	invoice, err := h.invoices.Get(c.Request.Context(), middleware.GetShopID(c), id)
	if err != nil {
		respondResourceError(c, "Invoice", err)
		return nil, false
	}
	return invoice, true
}
