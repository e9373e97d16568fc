package gst

import (
	"github.com/shopspring/decimal"
)

// LineItem is one billed line. Discount is carried for display only and is
// not subtracted from the taxable value.
type LineItem struct {
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	Packets  int             `json:"packets,omitempty"`
	Discount decimal.Decimal `json:"discount,omitempty"`
}

// LineResult is the computed tax for a single LineItem.
type LineResult struct {
	TaxableValue decimal.Decimal `json:"taxableValue"`
	TaxSplit
	Total decimal.Decimal `json:"total"`
}

// InvoiceTotals aggregates every line of an invoice.
type InvoiceTotals struct {
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	CGSTAmount    decimal.Decimal `json:"cgstAmount"`
	SGSTAmount    decimal.Decimal `json:"sgstAmount"`
	IGSTAmount    decimal.Decimal `json:"igstAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	AmountInWords string          `json:"amountInWords"`
	Lines         []LineResult    `json:"lines"`
}

// TotalTax returns CGST + SGST + IGST.
func (t InvoiceTotals) TotalTax() decimal.Decimal {
	return t.CGSTAmount.Add(t.SGSTAmount).Add(t.IGSTAmount)
}

// CalculateLine computes taxable value, tax split and line total for item.
func CalculateLine(item LineItem, interState bool) LineResult {
	taxable := item.Quantity.Mul(item.Rate)
	split := CalculateTaxes(taxable, item.TaxRate, interState)
	return LineResult{
		TaxableValue: taxable,
		TaxSplit:     split,
		Total:        taxable.Add(split.TotalTax),
	}
}

// Aggregate computes the invoice totals for items. The grand total is rounded
// half up to whole rupees and the difference is reported as RoundOff.
func Aggregate(items []LineItem, interState bool) InvoiceTotals {
	totals := InvoiceTotals{
		TaxableAmount: decimal.Zero,
		CGSTAmount:    decimal.Zero,
		SGSTAmount:    decimal.Zero,
		IGSTAmount:    decimal.Zero,
		TotalAmount:   decimal.Zero,
		Lines:         make([]LineResult, 0, len(items)),
	}

	for _, item := range items {
		line := CalculateLine(item, interState)
		totals.Lines = append(totals.Lines, line)

		totals.TaxableAmount = totals.TaxableAmount.Add(line.TaxableValue)
		totals.CGSTAmount = totals.CGSTAmount.Add(line.CGSTAmount)
		totals.SGSTAmount = totals.SGSTAmount.Add(line.SGSTAmount)
		totals.IGSTAmount = totals.IGSTAmount.Add(line.IGSTAmount)
		totals.TotalAmount = totals.TotalAmount.Add(line.Total)
	}

	rounded := RoundRupees(totals.TotalAmount)
	totals.RoundOff = rounded.Sub(totals.TotalAmount)
	totals.GrandTotal = rounded
	totals.AmountInWords = NumToWords(rounded)

	return totals
}

// RoundRupees rounds amount to a whole rupee, halves away from zero.
func RoundRupees(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}
