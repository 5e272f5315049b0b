package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateStatuses(t *testing.T) {
	cases := []struct {
		name         string
		installments []Installment
		want         AggregateStatus
	}{
		{
			name: "nothing paid",
			installments: []Installment{
				{ID: 1, OriginalAmount: 100},
				{ID: 2, OriginalAmount: 50},
			},
			want: AggregatePending,
		},
		{
			name: "partially paid",
			installments: []Installment{
				{ID: 1, OriginalAmount: 100, ReceivedAmount: 100},
				{ID: 2, OriginalAmount: 50},
			},
			want: AggregatePartiallyPaid,
		},
		{
			name: "fully paid",
			installments: []Installment{
				{ID: 1, OriginalAmount: 100, ReceivedAmount: 100},
				{ID: 2, OriginalAmount: 50, ReceivedAmount: 50},
			},
			want: AggregateFullyPaid,
		},
		{
			name: "sub-epsilon residue counts as fully paid",
			installments: []Installment{
				{ID: 1, OriginalAmount: 100, ReceivedAmount: 99.995},
			},
			want: AggregateFullyPaid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Aggregate(tc.installments).Status)
		})
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	installments := []Installment{
		{ID: 1, SaleNumber: "S-1", OriginalAmount: 33.33, ReceivedAmount: 11.11},
		{ID: 2, SaleNumber: "S-1", OriginalAmount: 66.67, ReceivedAmount: 0.01},
		{ID: 3, SaleNumber: "S-2", OriginalAmount: 120.55, ReceivedAmount: 120.55},
	}

	first := Aggregate(installments)
	second := Aggregate(installments)
	require.Equal(t, first, second)
}

func TestAggregateTotalsAndBreakdown(t *testing.T) {
	installments := []Installment{
		{ID: 1, SaleNumber: "S-1", OriginalAmount: 0.1},
		{ID: 2, SaleNumber: "S-1", OriginalAmount: 0.2, ReceivedAmount: 0.2},
	}

	summary := Aggregate(installments)
	require.Equal(t, 0.30, summary.TotalValue)
	require.Equal(t, 0.20, summary.TotalPaid)
	require.Equal(t, 0.10, summary.RemainingBalance)
	require.Len(t, summary.Breakdown, 2)
	require.Equal(t, StatusPending, summary.Breakdown[0].Status)
	require.Equal(t, StatusPaid, summary.Breakdown[1].Status)
}

func TestGroupBySale(t *testing.T) {
	installments := []Installment{
		{ID: 1, SaleNumber: "S-2", ClientDocument: "123", OriginalAmount: 10},
		{ID: 2, SaleNumber: "S-1", ClientDocument: "123", OriginalAmount: 20},
		{ID: 3, SaleNumber: "S-1", ClientDocument: "123", OriginalAmount: 30},
	}

	sales := GroupBySale(installments)
	require.Len(t, sales, 2)
	require.Equal(t, "S-1", sales[0].SaleNumber)
	require.Equal(t, 50.0, sales[0].TotalValue)
	require.Equal(t, "S-2", sales[1].SaleNumber)
}

func TestGroupByClientFoldsNameWhenDocumentAbsent(t *testing.T) {
	installments := []Installment{
		{ID: 1, SaleNumber: "S-1", ClientName: "José da Silva", OriginalAmount: 10},
		{ID: 2, SaleNumber: "S-2", ClientName: "jose  da silva", OriginalAmount: 20},
		{ID: 3, SaleNumber: "S-3", ClientDocument: " 99 ", ClientName: "Outra Pessoa", OriginalAmount: 5},
	}

	clients := GroupByClient(installments)
	require.Len(t, clients, 2)

	byKey := map[string]ClientSummary{}
	for _, c := range clients {
		byKey[c.ClientKey] = c
	}
	require.Contains(t, byKey, "jose da silva")
	require.Equal(t, 30.0, byKey["jose da silva"].TotalValue)
	require.Contains(t, byKey, "99")
}
