package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionInvoiceStatus(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceStatusGenerated, InvoiceStatusPaid, true},
		{InvoiceStatusGenerated, InvoiceStatusCancelled, true},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusPaid, InvoiceStatusGenerated, false},
		{InvoiceStatusCancelled, InvoiceStatusPaid, false},
		{InvoiceStatusGenerated, InvoiceStatusGenerated, false},
		{InvoiceStatus("Draft"), InvoiceStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionInvoiceStatus(tt.from, tt.to))
		})
	}
}

func TestIsGSTSlab(t *testing.T) {
	for _, rate := range []string{"0", "0.25", "3", "5", "12", "18", "28", "18.00"} {
		assert.True(t, IsGSTSlab(decimal.RequireFromString(rate)), rate)
	}
	for _, rate := range []string{"1", "7.5", "40", "-5"} {
		assert.False(t, IsGSTSlab(decimal.RequireFromString(rate)), rate)
	}
}

func TestProduct_TracksStock(t *testing.T) {
	p := Product{}
	assert.False(t, p.TracksStock())

	p.StockQuantity = decimal.NewNullDecimal(decimal.NewFromInt(10))
	assert.True(t, p.TracksStock())
}

func TestDefaultNotificationPreference(t *testing.T) {
	id := uuid.New()
	prefs := DefaultNotificationPreference(id)
	assert.Equal(t, id, prefs.UserID)
	assert.True(t, prefs.InvoiceEmail)
	assert.False(t, prefs.InvoiceWhatsapp)
	assert.True(t, prefs.MonthlyGSTSummary)
	assert.True(t, prefs.PaymentAlerts)
}

func TestInvoice_TotalTax(t *testing.T) {
	inv := Invoice{
		CGSTAmount: decimal.RequireFromString("90"),
		SGSTAmount: decimal.RequireFromString("90"),
		IGSTAmount: decimal.Zero,
	}
	assert.True(t, decimal.NewFromInt(180).Equal(inv.TotalTax()))
}
