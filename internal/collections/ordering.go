package collections

import (
	"sort"
	"time"
)

// OrderForCollection filters to outstanding installments and sorts them in
// collection priority order: overdue before not-yet-due, then ascending due
// date within each bucket. Installments without a parseable due date sort
// after everything else, by id for stability. The input slice is not
// modified.
func OrderForCollection(installments []Installment, today time.Time) []Installment {
	ordered := make([]Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Outstanding() {
			ordered = append(ordered, inst)
		}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ia, ib := ordered[a], ordered[b]
		overdueA, overdueB := ia.Overdue(today), ib.Overdue(today)
		if overdueA != overdueB {
			return overdueA
		}
		switch {
		case ia.DueDate.IsZero() && ib.DueDate.IsZero():
			return ia.ID < ib.ID
		case ia.DueDate.IsZero():
			return false
		case ib.DueDate.IsZero():
			return true
		}
		if !ia.DueDate.Equal(ib.DueDate) {
			return ia.DueDate.Before(ib.DueDate)
		}
		return ia.ID < ib.ID
	})
	return ordered
}
