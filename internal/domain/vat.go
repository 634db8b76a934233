package domain

import "math"

// VATBreakdown is the subtotal / tax / total decomposition of an amount.
type VATBreakdown struct {
	Subtotal float64 `json:"subtotal"`
	VAT      float64 `json:"vat_amount"`
	Total    float64 `json:"total"`
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeVAT decomposes an amount according to the VAT rate.
//
// When included is true the amount already carries the tax: the subtotal is
// backed out of it and the total stays equal to the amount. Otherwise the tax
// is added on top of the amount. A zero rate yields vat 0 and
// subtotal == total == amount. Callers validate that amount is a
// non-negative number before invoking.
func ComputeVAT(amount, rate float64, included bool) VATBreakdown {
	if included {
		subtotal := Round2(amount / (1 + rate))
		return VATBreakdown{
			Subtotal: subtotal,
			VAT:      Round2(amount - subtotal),
			Total:    amount,
		}
	}

	vat := Round2(amount * rate)
	return VATBreakdown{
		Subtotal: amount,
		VAT:      vat,
		Total:    Round2(amount + vat),
	}
}
