package visits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func TestValidateBatchPastDateIsHardError(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(-1), Time: "10:00"},
		{ClientDocument: "222", ClientName: "João Lima", Date: day(1), Time: "14:00"},
	}, today)

	require.True(t, result.Blocked())
	require.Len(t, result.Errors, 1)
	require.Equal(t, "Maria Souza: Data não pode ser anterior a hoje (2025-06-14)", result.Errors[0])
}

func TestValidateBatchTodayIsAllowed(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(0)},
	}, today)

	require.False(t, result.Blocked())
	require.Empty(t, result.Conflicts)
}

func TestValidateBatchSameSlotConflict(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(2), Time: "10:00"},
		{ClientDocument: "222", ClientName: "João Lima", Date: day(2), Time: "10:00"},
	}, today)

	require.False(t, result.Blocked())
	require.True(t, result.NeedsConfirmation())
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, "2025-06-17 10:00: João Lima, Maria Souza", result.Conflicts[0])
}

func TestValidateBatchDifferentTimesNoConflict(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(2), Time: "10:00"},
		{ClientDocument: "222", ClientName: "João Lima", Date: day(2), Time: "11:00"},
	}, today)

	require.False(t, result.Blocked())
	require.False(t, result.NeedsConfirmation())
}

func TestValidateBatchEmptyTimeSlotStillGroups(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(3)},
		{ClientDocument: "222", ClientName: "João Lima", Date: day(3)},
		{ClientDocument: "333", ClientName: "Ana Castro", Date: day(3)},
	}, today)

	require.Len(t, result.Conflicts, 1)
	require.Equal(t, "2025-06-18: Ana Castro, João Lima, Maria Souza", result.Conflicts[0])
}

func TestValidateBatchErrorsTakePrecedenceOverConflicts(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "111", ClientName: "Maria Souza", Date: day(-2), Time: "09:00"},
		{ClientDocument: "222", ClientName: "João Lima", Date: day(1), Time: "09:00"},
		{ClientDocument: "333", ClientName: "Ana Castro", Date: day(1), Time: "09:00"},
	}, today)

	require.True(t, result.Blocked())
	require.False(t, result.NeedsConfirmation())
	require.Len(t, result.Conflicts, 1)
}

func TestValidateBatchFallsBackToDocumentWhenNameMissing(t *testing.T) {
	result := ValidateBatch([]Proposal{
		{ClientDocument: "12345678900", Date: day(-1)},
	}, today)

	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "12345678900")
}
