package collections

import (
	"sort"

	"github.com/fieldcollect/fieldcollect/internal/money"
)

// AggregateStatus is the tri-state settlement status of a sale or client
// balance.
type AggregateStatus string

const (
	AggregatePending       AggregateStatus = "pending"
	AggregatePartiallyPaid AggregateStatus = "partially_paid"
	AggregateFullyPaid     AggregateStatus = "fully_paid"
)

// BreakdownLine is the per-installment drill-down row of a summary.
type BreakdownLine struct {
	InstallmentID int64   `json:"installment_id"`
	SaleNumber    string  `json:"sale_number"`
	Original      float64 `json:"original"`
	Paid          float64 `json:"paid"`
	Remaining     float64 `json:"remaining"`
	Status        Status  `json:"status"`
}

// Summary holds recomputed balances for a sale or a client. It is derived on
// every read from the current installment set and must never be persisted as
// source of truth.
type Summary struct {
	TotalValue       float64         `json:"total_value"`
	TotalPaid        float64         `json:"total_paid"`
	RemainingBalance float64         `json:"remaining_balance"`
	Status           AggregateStatus `json:"status"`
	Breakdown        []BreakdownLine `json:"breakdown"`
}

// SaleSummary is a Summary scoped to one sale number of one client.
type SaleSummary struct {
	SaleNumber     string `json:"sale_number"`
	ClientDocument string `json:"client_document"`
	ClientName     string `json:"client_name"`
	Summary
}

// ClientSummary groups all of a client's sales.
type ClientSummary struct {
	ClientKey      string        `json:"client_key"`
	ClientDocument string        `json:"client_document"`
	ClientName     string        `json:"client_name"`
	Sales          []SaleSummary `json:"sales,omitempty"`
	Summary
}

// Aggregate recomputes totals and status from an installment snapshot. It is
// pure and idempotent: identical input yields bit-exact identical output.
func Aggregate(installments []Installment) Summary {
	var s Summary
	for _, inst := range installments {
		s.TotalValue = money.Round2(s.TotalValue + inst.OriginalAmount)
		s.TotalPaid = money.Round2(s.TotalPaid + inst.ReceivedAmount)
		s.Breakdown = append(s.Breakdown, BreakdownLine{
			InstallmentID: inst.ID,
			SaleNumber:    inst.SaleNumber,
			Original:      inst.OriginalAmount,
			Paid:          inst.ReceivedAmount,
			Remaining:     inst.Pending(),
			Status:        DeriveStatus(inst.OriginalAmount, inst.ReceivedAmount),
		})
	}
	s.RemainingBalance = money.Round2(s.TotalValue - s.TotalPaid)
	if money.Settled(s.RemainingBalance) {
		s.RemainingBalance = 0
	}
	switch {
	case s.TotalPaid <= 0:
		s.Status = AggregatePending
	case s.RemainingBalance <= money.Epsilon:
		s.Status = AggregateFullyPaid
	default:
		s.Status = AggregatePartiallyPaid
	}
	return s
}

// GroupBySale splits installments into per-sale summaries, keyed by sale
// number plus client identity, sorted by sale number.
func GroupBySale(installments []Installment) []SaleSummary {
	type saleKey struct {
		client string
		sale   string
	}
	groups := make(map[saleKey][]Installment)
	order := make([]saleKey, 0)
	for _, inst := range installments {
		key := saleKey{client: ClientKey(inst.ClientDocument, inst.ClientName), sale: inst.SaleNumber}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], inst)
	}
	sort.Slice(order, func(a, b int) bool {
		if order[a].client != order[b].client {
			return order[a].client < order[b].client
		}
		return order[a].sale < order[b].sale
	})

	sales := make([]SaleSummary, 0, len(order))
	for _, key := range order {
		insts := groups[key]
		sales = append(sales, SaleSummary{
			SaleNumber:     key.sale,
			ClientDocument: insts[0].ClientDocument,
			ClientName:     insts[0].ClientName,
			Summary:        Aggregate(insts),
		})
	}
	return sales
}

// GroupByClient aggregates one level up from sales, keyed by the trimmed
// client document (or folded name when absent), sorted by client name.
func GroupByClient(installments []Installment) []ClientSummary {
	groups := make(map[string][]Installment)
	order := make([]string, 0)
	for _, inst := range installments {
		key := ClientKey(inst.ClientDocument, inst.ClientName)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], inst)
	}
	sort.Strings(order)

	clients := make([]ClientSummary, 0, len(order))
	for _, key := range order {
		insts := groups[key]
		clients = append(clients, ClientSummary{
			ClientKey:      key,
			ClientDocument: insts[0].ClientDocument,
			ClientName:     insts[0].ClientName,
			Sales:          GroupBySale(insts),
			Summary:        Aggregate(insts),
		})
	}
	return clients
}
