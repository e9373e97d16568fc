// Package gst implements the Indian GST arithmetic used on tax invoices:
// CGST/SGST versus IGST splits, invoice total aggregation with rupee rounding,
// and the "amount in words" line in the Indian numbering system.
package gst

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// TaxSplit is the tax due on one taxable value. Either the CGST/SGST pair or
// IGST carries the tax, never both.
type TaxSplit struct {
	CGSTRate   decimal.Decimal `json:"cgstRate"`
	CGSTAmount decimal.Decimal `json:"cgstAmount"`
	SGSTRate   decimal.Decimal `json:"sgstRate"`
	SGSTAmount decimal.Decimal `json:"sgstAmount"`
	IGSTRate   decimal.Decimal `json:"igstRate"`
	IGSTAmount decimal.Decimal `json:"igstAmount"`
	TotalTax   decimal.Decimal `json:"totalTax"`
}

// Party is the part of a seller or buyer that decides the place of supply.
type Party struct {
	State     string
	StateCode string
}

// CalculateTaxes splits the GST on taxableValue at ratePercent.
// Intra-state supplies are taxed half as CGST and half as SGST; inter-state
// supplies carry the full rate as IGST. Amounts are not rounded.
func CalculateTaxes(taxableValue, ratePercent decimal.Decimal, interState bool) TaxSplit {
	totalTax := taxableValue.Mul(ratePercent).Div(hundred)

	if interState {
		return TaxSplit{
			CGSTRate:   decimal.Zero,
			CGSTAmount: decimal.Zero,
			SGSTRate:   decimal.Zero,
			SGSTAmount: decimal.Zero,
			IGSTRate:   ratePercent,
			IGSTAmount: totalTax,
			TotalTax:   totalTax,
		}
	}

	halfTax := totalTax.Div(two)
	halfRate := ratePercent.Div(two)
	return TaxSplit{
		CGSTRate:   halfRate,
		CGSTAmount: halfTax,
		SGSTRate:   halfRate,
		SGSTAmount: halfTax,
		IGSTRate:   decimal.Zero,
		IGSTAmount: decimal.Zero,
		TotalTax:   totalTax,
	}
}

// IsInterState reports whether a supply from seller to buyer crosses a state
// boundary. State codes are compared when both parties have one, otherwise
// the state names are.
func IsInterState(seller, buyer Party) bool {
	sellerCode := normalize(seller.StateCode)
	buyerCode := normalize(buyer.StateCode)
	if sellerCode != "" && buyerCode != "" {
		return sellerCode != buyerCode
	}
	return normalize(seller.State) != normalize(buyer.State)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
