package loan

import (
	"math/bits"

	domain "blolend/internal/domain/loan"
)

// interestDue returns amount scaled by (100+rate)/100 with floor division.
// rate is an integer percent. Creation bounds amount and rate so the product
// cannot wrap.
func interestDue(amount, rate uint64) uint64 {
	return amount * (100 + rate) / 100
}

// splitPayout distributes total (principal plus interest) across the lender
// snapshot in insertion order. Every lender but the last receives its own
// contribution scaled by (100+rate)/100, floored; the last lender absorbs the
// rounding remainder so the payouts always sum to total.
func splitPayout(lenders []domain.Lender, rate, total uint64) []uint64 {
	out := make([]uint64, len(lenders))
	if len(lenders) == 0 {
		return out
	}
	var paid uint64
	for i := 0; i < len(lenders)-1; i++ {
		out[i] = interestDue(lenders[i].Amount, rate)
		paid += out[i]
	}
	out[len(lenders)-1] = total - paid
	return out
}

// splitCollateral distributes seized collateral across the lender snapshot
// proportionally to each contribution's share of the principal, floored, with
// the remainder assigned to the last lender.
func splitCollateral(lenders []domain.Lender, collateral, principal uint64) []uint64 {
	out := make([]uint64, len(lenders))
	if len(lenders) == 0 || principal == 0 {
		return out
	}
	var paid uint64
	for i := 0; i < len(lenders)-1; i++ {
		// 128-bit intermediate: collateral*amount can exceed a uint64 even
		// with both factors bounded. amount <= principal keeps the quotient
		// in range for Div64.
		hi, lo := bits.Mul64(collateral, lenders[i].Amount)
		out[i], _ = bits.Div64(hi, lo, principal)
		paid += out[i]
	}
	out[len(lenders)-1] = collateral - paid
	return out
}
