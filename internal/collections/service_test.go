package collections

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryInstallmentRepo struct {
	installments map[int64]*Installment
	failUpdates  map[int64]error
	listErr      error
}

func newMemoryInstallmentRepo(installments ...Installment) *memoryInstallmentRepo {
	repo := &memoryInstallmentRepo{
		installments: make(map[int64]*Installment),
		failUpdates:  make(map[int64]error),
	}
	for _, inst := range installments {
		copied := inst
		repo.installments[inst.ID] = &copied
	}
	return repo
}

func (r *memoryInstallmentRepo) ListInstallments(ctx context.Context) ([]Installment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Installment, 0, len(r.installments))
	for id := int64(1); len(out) < len(r.installments); id++ {
		if inst, ok := r.installments[id]; ok {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (r *memoryInstallmentRepo) UpdateInstallmentReceipt(ctx context.Context, id int64, received float64, status Status, receivedDate *time.Time) error {
	if err := r.failUpdates[id]; err != nil {
		return err
	}
	inst, ok := r.installments[id]
	if !ok {
		return ErrNotFound
	}
	inst.ReceivedAmount = received
	inst.Status = status
	inst.ReceivedDate = receivedDate
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixtureInstallments() []Installment {
	return []Installment{
		{ID: 1, SaleNumber: "S-1", ClientDocument: "111", ClientName: "Ana", OriginalAmount: 50, DueDate: day(-7)},
		{ID: 2, SaleNumber: "S-1", ClientDocument: "111", ClientName: "Ana", OriginalAmount: 200, DueDate: day(20)},
		{ID: 3, SaleNumber: "S-2", ClientDocument: "111", ClientName: "Ana", OriginalAmount: 100, DueDate: day(-2)},
		{ID: 4, SaleNumber: "S-9", ClientDocument: "222", ClientName: "Bruno", OriginalAmount: 80, DueDate: day(-1)},
	}
}

func TestProcessSalePaymentScopesToSale(t *testing.T) {
	repo := newMemoryInstallmentRepo(fixtureInstallments()...)
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return today }

	outcome, err := svc.ProcessSalePayment(context.Background(), "111", "S-1", 120)
	require.NoError(t, err)

	// Overdue installment 1 first, then the upcoming one from the same sale;
	// installment 3 belongs to another sale and must be untouched.
	require.Len(t, outcome.Ledger, 2)
	require.Equal(t, int64(1), outcome.Ledger[0].InstallmentID)
	require.Equal(t, 50.0, outcome.Ledger[0].Applied)
	require.Equal(t, int64(2), outcome.Ledger[1].InstallmentID)
	require.Equal(t, 70.0, outcome.Ledger[1].Applied)
	require.Equal(t, 2, outcome.Persisted)
	require.Empty(t, outcome.FailedIDs)
	require.Equal(t, 0.0, repo.installments[3].ReceivedAmount)
}

func TestProcessGeneralPaymentSpansSales(t *testing.T) {
	repo := newMemoryInstallmentRepo(fixtureInstallments()...)
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return today }

	outcome, err := svc.ProcessGeneralPayment(context.Background(), "111", "", 160)
	require.NoError(t, err)

	// Priority across all of the client's sales: id 1 (7 days overdue),
	// id 3 (2 days overdue), then id 2.
	require.Len(t, outcome.Ledger, 3)
	require.Equal(t, int64(1), outcome.Ledger[0].InstallmentID)
	require.Equal(t, int64(3), outcome.Ledger[1].InstallmentID)
	require.Equal(t, int64(2), outcome.Ledger[2].InstallmentID)
	require.Equal(t, 10.0, outcome.Ledger[2].Applied)
	require.Equal(t, 0.0, repo.installments[4].ReceivedAmount)
}

func TestProcessPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	_, err := svc.ProcessSalePayment(context.Background(), "111", "S-1", 0)
	require.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = svc.ProcessGeneralPayment(context.Background(), "111", "", -10)
	require.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestProcessPaymentUnknownScope(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	_, err := svc.ProcessSalePayment(context.Background(), "111", "S-404", 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProcessPaymentPersistFailureIsReportedNotFatal(t *testing.T) {
	repo := newMemoryInstallmentRepo(fixtureInstallments()...)
	repo.failUpdates[1] = errors.New("store unreachable")
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return today }

	outcome, err := svc.ProcessSalePayment(context.Background(), "111", "S-1", 120)
	require.NoError(t, err)

	// The distribution itself still covers both installments; only the
	// remote write for the first one failed.
	require.Len(t, outcome.Ledger, 2)
	require.Equal(t, 1, outcome.Persisted)
	require.Equal(t, []int64{1}, outcome.FailedIDs)
	require.Equal(t, 50.0, outcome.Updated[0].ReceivedAmount)
	require.Equal(t, 70.0, repo.installments[2].ReceivedAmount)
	require.Equal(t, 0.0, repo.installments[1].ReceivedAmount)
}

func TestApplyCorrection(t *testing.T) {
	repo := newMemoryInstallmentRepo(fixtureInstallments()...)
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return today }

	inst, err := svc.ApplyCorrection(context.Background(), CorrectionInput{InstallmentID: 1, NewReceived: 50})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inst.Status)
	require.NotNil(t, inst.ReceivedDate)
	require.Equal(t, 50.0, repo.installments[1].ReceivedAmount)
}

func TestApplyCorrectionOverpaymentNeedsConfirmation(t *testing.T) {
	repo := newMemoryInstallmentRepo(fixtureInstallments()...)
	svc := NewService(repo, testLogger())

	_, err := svc.ApplyCorrection(context.Background(), CorrectionInput{InstallmentID: 1, NewReceived: 75})
	require.ErrorIs(t, err, ErrOverpaymentDeclined)

	inst, err := svc.ApplyCorrection(context.Background(), CorrectionInput{InstallmentID: 1, NewReceived: 75, AllowOverpayment: true})
	require.NoError(t, err)
	require.Equal(t, 75.0, inst.ReceivedAmount)
	require.Equal(t, StatusPaid, inst.Status)
}

func TestApplyCorrectionRejectsNegative(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	_, err := svc.ApplyCorrection(context.Background(), CorrectionInput{InstallmentID: 1, NewReceived: -1})
	require.ErrorIs(t, err, ErrNegativeCorrection)
}

func TestApplyCorrectionBackToPendingClearsReceivedDate(t *testing.T) {
	installments := fixtureInstallments()
	received := day(-3)
	installments[0].ReceivedAmount = 50
	installments[0].Status = StatusPaid
	installments[0].ReceivedDate = &received

	repo := newMemoryInstallmentRepo(installments...)
	svc := NewService(repo, testLogger())

	inst, err := svc.ApplyCorrection(context.Background(), CorrectionInput{InstallmentID: 1, NewReceived: 0})
	require.NoError(t, err)
	require.Equal(t, StatusPending, inst.Status)
	require.Nil(t, inst.ReceivedDate)
}

func TestClientStatement(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	statement, err := svc.ClientStatement(context.Background(), "111", "")
	require.NoError(t, err)
	require.Equal(t, "Ana", statement.ClientName)
	require.Len(t, statement.Sales, 2)
	require.Equal(t, 350.0, statement.TotalValue)
	require.Equal(t, AggregatePending, statement.Status)

	_, err = svc.ClientStatement(context.Background(), "404", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaleStatement(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	statement, err := svc.SaleStatement(context.Background(), "222", "S-9")
	require.NoError(t, err)
	require.Equal(t, 80.0, statement.TotalValue)
	require.Equal(t, "Bruno", statement.ClientName)
}

func TestListClientGroups(t *testing.T) {
	svc := NewService(newMemoryInstallmentRepo(fixtureInstallments()...), testLogger())

	clients, err := svc.ListClientGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
}
