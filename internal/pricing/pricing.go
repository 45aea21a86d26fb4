// Package pricing holds the pure cart arithmetic. Amounts are exact
// decimals; rounding happens only at the formatting boundary, so
// Total always reconciles as Subtotal + ServiceCharge - Discount.
package pricing

import (
	"github.com/shopspring/decimal"

	"restopos/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives the cart totals under the current rates. The
// service charge applies to the subtotal; the discount applies to
// subtotal plus service charge.
func ComputeTotals(cart []domain.CartLine, settings domain.Settings) domain.Totals {
	subtotal := decimal.Zero
	for _, line := range cart {
		subtotal = subtotal.Add(line.Subtotal())
	}

	serviceRate := decimal.NewFromFloat(settings.ServiceChargeRatePercent)
	discountRate := decimal.NewFromFloat(settings.DiscountRatePercent)

	serviceCharge := subtotal.Mul(serviceRate).Div(hundred)
	discount := subtotal.Add(serviceCharge).Mul(discountRate).Div(hundred)

	return domain.Totals{
		Subtotal:      subtotal,
		ServiceCharge: serviceCharge,
		Discount:      discount,
		Total:         subtotal.Add(serviceCharge).Sub(discount),
	}
}

// ComputeBalance computes change due for a tendered payment. Negative
// payment amounts are treated as zero.
func ComputeBalance(payment decimal.Decimal, totals domain.Totals) domain.Balance {
	if payment.IsNegative() {
		payment = decimal.Zero
	}
	balance := payment.Sub(totals.Total)
	return domain.Balance{
		Payment:    payment,
		Total:      totals.Total,
		Balance:    balance,
		Sufficient: !balance.IsNegative(),
	}
}
