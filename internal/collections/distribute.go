package collections

import (
	"time"

	"github.com/fieldcollect/fieldcollect/internal/money"
)

// DistributionResult carries the outcome of one distribution run. Updated
// holds copies of every installment that received funds; the input slice is
// never mutated.
type DistributionResult struct {
	Updated []Installment
	Ledger  []Entry
	// Leftover is whatever part of the payment could not be applied, either
	// because every installment is settled or because only a sub-epsilon
	// residue remained. Callers may surface it as an overpayment notice.
	Leftover float64
}

// Distribute allocates a single payment amount across the outstanding
// installments, walking them in collection priority order and greedily
// settling each pending balance. A zero or negative amount yields an empty
// result; rejecting such input with an error is the caller's job.
//
// At most one rounding epsilon of the payment is left undistributed, and the
// sum of applied amounts never exceeds the payment.
func Distribute(installments []Installment, amount float64, today time.Time) DistributionResult {
	var result DistributionResult
	if amount <= 0 {
		return result
	}

	remaining := money.Round2(amount)
	for _, inst := range OrderForCollection(installments, today) {
		if remaining <= money.Epsilon {
			break
		}
		applied := money.Round2(money.Min(remaining, inst.Pending()))
		if applied <= money.Epsilon {
			continue
		}

		inst.ReceivedAmount = money.Round2(inst.ReceivedAmount + applied)
		inst.Status = DeriveStatus(inst.OriginalAmount, inst.ReceivedAmount)
		if inst.Status == StatusPaid {
			received := dateOnly(today)
			inst.ReceivedDate = &received
		}
		remaining = money.Round2(remaining - applied)

		result.Updated = append(result.Updated, inst)
		result.Ledger = append(result.Ledger, Entry{
			InstallmentID:   inst.ID,
			SaleNumber:      inst.SaleNumber,
			Applied:         applied,
			ResultingStatus: inst.Status,
		})
	}
	result.Leftover = remaining
	return result
}
