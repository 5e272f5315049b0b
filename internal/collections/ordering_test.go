package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ids(installments []Installment) []int64 {
	out := make([]int64, 0, len(installments))
	for _, inst := range installments {
		out = append(out, inst.ID)
	}
	return out
}

func TestOrderForCollectionOverdueFirst(t *testing.T) {
	installments := []Installment{
		{ID: 1, OriginalAmount: 10, DueDate: day(5)},
		{ID: 2, OriginalAmount: 10, DueDate: day(-2)},
		{ID: 3, OriginalAmount: 10, DueDate: day(-10)},
		{ID: 4, OriginalAmount: 10, DueDate: day(1)},
	}

	ordered := OrderForCollection(installments, today)
	require.Equal(t, []int64{3, 2, 4, 1}, ids(ordered))
}

func TestOrderForCollectionFiltersSettled(t *testing.T) {
	installments := []Installment{
		{ID: 1, OriginalAmount: 10, ReceivedAmount: 10, DueDate: day(-1)},
		{ID: 2, OriginalAmount: 10, ReceivedAmount: 9.995, DueDate: day(-1)},
		{ID: 3, OriginalAmount: 10, ReceivedAmount: 3, DueDate: day(-1)},
	}

	ordered := OrderForCollection(installments, today)
	require.Equal(t, []int64{3}, ids(ordered))
}

func TestOrderForCollectionUnparseableDatesSortLast(t *testing.T) {
	installments := []Installment{
		{ID: 1, OriginalAmount: 10, DueDateRaw: "soon"},
		{ID: 2, OriginalAmount: 10, DueDate: day(3)},
		{ID: 3, OriginalAmount: 10, DueDate: day(-3)},
		{ID: 4, OriginalAmount: 10, DueDateRaw: ""},
	}

	ordered := OrderForCollection(installments, today)
	require.Equal(t, []int64{3, 2, 1, 4}, ids(ordered))
}

func TestOrderForCollectionDueTodayIsNotOverdue(t *testing.T) {
	installments := []Installment{
		{ID: 1, OriginalAmount: 10, DueDate: today},
		{ID: 2, OriginalAmount: 10, DueDate: day(-1)},
	}

	ordered := OrderForCollection(installments, today)
	require.Equal(t, []int64{2, 1}, ids(ordered))
}

func TestOrderForCollectionDoesNotMutateInput(t *testing.T) {
	installments := []Installment{
		{ID: 1, OriginalAmount: 10, DueDate: day(5)},
		{ID: 2, OriginalAmount: 10, DueDate: day(-2)},
	}

	_ = OrderForCollection(installments, today)
	require.Equal(t, int64(1), installments[0].ID)
	require.Equal(t, int64(2), installments[1].ID)
}
