package gst

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	thousand = 1_000
	lakh     = 1_00_000
	crore    = 1_00_00_000
)

var bigCrore = big.NewInt(crore)

var smallNumbers = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// NumToWords renders amount the way it is printed on an Indian tax invoice,
// e.g. 12346.50 becomes "Rupees Twelve Thousand Three Hundred Forty Six and
// Fifty Paise Only". Zero renders as the bare word "Zero".
func NumToWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsZero() {
		return "Zero"
	}

	prefix := ""
	if amount.IsNegative() {
		prefix = "Minus "
		amount = amount.Neg()
	}

	rupees := amount.BigInt()
	paise := amount.Sub(amount.Floor()).Mul(hundred).Round(0).IntPart()

	words := rupeeWords(rupees)
	if rupees.Sign() == 0 {
		words = "Zero"
	}

	result := prefix + "Rupees " + words
	if paise > 0 {
		result += " and " + integerWords(paise) + " Paise"
	}
	return result + " Only"
}

// rupeeWords peels off crores with big.Int so amounts past int64 still spell out.
func rupeeWords(n *big.Int) string {
	if n.Cmp(bigCrore) < 0 {
		return integerWords(n.Int64())
	}
	q, r := new(big.Int).QuoRem(n, bigCrore, new(big.Int))
	return joinWords(rupeeWords(q)+" Crore", integerWords(r.Int64()))
}

// integerWords spells n in lakh/crore grouping. Zero yields an empty string so
// that empty remainders never produce filler words.
func integerWords(n int64) string {
	switch {
	case n < 20:
		return smallNumbers[n]
	case n < 100:
		return joinWords(tens[n/10], smallNumbers[n%10])
	case n < thousand:
		return joinWords(smallNumbers[n/100]+" Hundred", integerWords(n%100))
	case n < lakh:
		return joinWords(integerWords(n/thousand)+" Thousand", integerWords(n%thousand))
	case n < crore:
		return joinWords(integerWords(n/lakh)+" Lakh", integerWords(n%lakh))
	default:
		return joinWords(integerWords(n/crore)+" Crore", integerWords(n%crore))
	}
}

func joinWords(head, rest string) string {
	if rest == "" {
		return head
	}
	return head + " " + rest
}
