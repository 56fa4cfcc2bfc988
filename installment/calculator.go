// calculator.go - Money math for installments and budget leftovers.
//
// All figures are shopspring decimals with 2 fraction digits; float64 never
// touches money.
package installment

import "github.com/shopspring/decimal"

// PricePerMonth spreads the total principal evenly across the tenure,
// rounded to 2 decimal places, half up.
func PricePerMonth(totalAmount decimal.Decimal, tenureMonths int) decimal.Decimal {
	return totalAmount.DivRound(decimal.NewFromInt(int64(tenureMonths)), 2)
}

// LeftoverAmount computes a budget's remaining figure: initial minus the sum
// of monthly obligations still outstanding. A nil initial amount propagates
// unchanged ("unknown" stays unknown), and a nil obligation sum (no
// installments draw on the budget) leaves the initial amount untouched.
func LeftoverAmount(sumOfObligations, initialAmount *decimal.Decimal) *decimal.Decimal {
	if initialAmount == nil {
		return nil
	}
	if sumOfObligations == nil {
		return initialAmount
	}
	leftover := initialAmount.Sub(*sumOfObligations)
	return &leftover
}
