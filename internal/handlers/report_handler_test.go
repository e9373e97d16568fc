package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
)

func periodIs(start, end string) interface{} {
	return mock.MatchedBy(func(p services.Period) bool {
		matches := func(got *time.Time, want string) bool {
			if want == "" {
				return got == nil
			}
			return got != nil && got.Format(dateLayout) == want
		}
		return matches(p.Start, start) && matches(p.End, end)
	})
}

func TestReportHandler_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	env.dashboard.On("Get", mock.Anything, env.principal.ShopID).Return(&services.Dashboard{
		TotalCustomers: 12,
		TotalInvoices:  40,
		TotalRevenue:   decimal.RequireFromString("152340.50"),
	}, nil)

	w := env.do(http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(12), body["totalCustomers"])
	assert.Equal(t, "152340.5", body["totalRevenue"])
}

func TestReportHandler_GSTSummary(t *testing.T) {
	t.Run("explicit period", func(t *testing.T) {
		env := newTestEnv(t)
		env.reports.On("GSTSummary", mock.Anything, env.principal.ShopID, periodIs("2024-07-01", "2024-07-31")).
			Return(&services.GSTSummary{InvoiceCount: 3}, nil)

		w := env.do(http.MethodGet, "/api/v1/reports/gst-summary?startDate=2024-07-01&endDate=2024-07-31", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("defaults left to the service", func(t *testing.T) {
		env := newTestEnv(t)
		env.reports.On("GSTSummary", mock.Anything, env.principal.ShopID, periodIs("", "")).
			Return(&services.GSTSummary{}, nil)

		w := env.do(http.MethodGet, "/api/v1/reports/gst-summary", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/v1/reports/gst-summary?endDate=31/07/2024", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "endDate must be YYYY-MM-DD", decodeError(t, w).Message)
		env.reports.AssertNotCalled(t, "GSTSummary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("export", func(t *testing.T) {
		env := newTestEnv(t)
		env.reports.On("ExportGSTSummaryXLSX", mock.Anything, env.principal.ShopID, periodIs("2024-07-01", "")).
			Return(&services.Document{Data: []byte("PK"), ContentType: services.ContentTypeXLSX, FileName: "gst-summary-2024-07-01.xlsx"}, nil)

		w := env.do(http.MethodGet, "/api/v1/reports/gst-summary/export?startDate=2024-07-01", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, services.ContentTypeXLSX, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="gst-summary-2024-07-01.xlsx"`, w.Header().Get("Content-Disposition"))
	})
}

func TestReportHandler_Ledger(t *testing.T) {
	t.Run("ledger", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		env.reports.On("CustomerLedger", mock.Anything, env.principal.ShopID, customerID, periodIs("2024-06-01", "")).
			Return(&services.Ledger{
				Customer:       &models.Customer{ID: customerID, Name: "Patel & Sons"},
				OpeningBalance: decimal.NewFromInt(2500),
			}, nil)

		w := env.do(http.MethodGet, "/api/v1/reports/ledger?customerId="+customerID.String()+"&startDate=2024-06-01", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "2500", decodeBody(t, w)["openingBalance"])
	})

	t.Run("customer required", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodGet, "/api/v1/reports/ledger", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "customerId is required", decodeError(t, w).Message)
	})

	t.Run("unknown customer", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		env.reports.On("ExportLedgerXLSX", mock.Anything, env.principal.ShopID, customerID, mock.Anything).
			Return(nil, repository.ErrNotFound)

		w := env.do(http.MethodGet, "/api/v1/reports/ledger/export?customerId="+customerID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Customer not found", decodeError(t, w).Message)
	})
}
