package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/services"
)

// ReportHandler serves the dashboard and the GST and ledger reports
type ReportHandler struct {
	dashboard services.DashboardService
	reports   services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(dashboard services.DashboardService, reports services.ReportService) *ReportHandler {
	return &ReportHandler{dashboard: dashboard, reports: reports}
}

// Dashboard returns the headline numbers and monthly revenue
// @Summary Dashboard
// @Tags reports
// @Produce json
// @Success 200 {object} services.Dashboard
// @Security BearerAuth
// @Router /dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.dashboard.Get(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GSTSummary totals taxable value and tax per rate over a period
// @Summary GST summary
// @Tags reports
// @Produce json
// @Param startDate query string false "Start date (YYYY-MM-DD), defaults to the first of this month"
// @Param endDate query string false "End date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} services.GSTSummary
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /reports/gst-summary [get]
func (h *ReportHandler) GSTSummary(c *gin.Context) {
	period, ok := periodFromQuery(c)
	if !ok {
		return
	}

	summary, err := h.reports.GSTSummary(c.Request.Context(), middleware.GetShopID(c), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportGSTSummary handles GET /api/v1/reports/gst-summary/export
func (h *ReportHandler) ExportGSTSummary(c *gin.Context) {
	period, ok := periodFromQuery(c)
	if !ok {
		return
	}

	doc, err := h.reports.ExportGSTSummaryXLSX(c.Request.Context(), middleware.GetShopID(c), period)
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc, false)
}

// CustomerLedger handles GET /api/v1/reports/ledger?customerId=
func (h *ReportHandler) CustomerLedger(c *gin.Context) {
	customerID, period, ok := ledgerParams(c)
	if !ok {
		return
	}

	ledger, err := h.reports.CustomerLedger(c.Request.Context(), middleware.GetShopID(c), customerID, period)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// ExportLedger handles GET /api/v1/reports/ledger/export?customerId=
func (h *ReportHandler) ExportLedger(c *gin.Context) {
	customerID, period, ok := ledgerParams(c)
	if !ok {
		return
	}

	doc, err := h.reports.ExportLedgerXLSX(c.Request.Context(), middleware.GetShopID(c), customerID, period)
	if err != nil {
		respondResourceError(c, "Customer", err)
		return
	}
	sendDocument(c, doc, false)
}

func ledgerParams(c *gin.Context) (uuid.UUID, services.Period, bool) {
	customerID, err := uuid.Parse(c.Query("customerId"))
	if err != nil {
		_ = c.Error(middleware.NewBadRequestError("customerId is required", nil))
		return uuid.Nil, services.Period{}, false
	}
	period, ok := periodFromQuery(c)
	return customerID, period, ok
}
