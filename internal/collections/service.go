package collections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldcollect/fieldcollect/internal/money"
)

// RepositoryPort defines the record-store operations the service needs. The
// store is an external collaborator; filtering happens in memory on the full
// installment scan, matching how collectors work against a shared book.
type RepositoryPort interface {
	ListInstallments(ctx context.Context) ([]Installment, error)
	UpdateInstallmentReceipt(ctx context.Context, id int64, received float64, status Status, receivedDate *time.Time) error
}

var (
	// ErrNonPositiveAmount rejects zero or negative payment input.
	ErrNonPositiveAmount = errors.New("collections: payment amount must be positive")
	// ErrNegativeCorrection rejects corrections below zero.
	ErrNegativeCorrection = errors.New("collections: received amount cannot be negative")
	// ErrOverpaymentDeclined is returned when a correction exceeds the
	// original amount without explicit confirmation.
	ErrOverpaymentDeclined = errors.New("collections: correction exceeds original amount, confirmation required")
	// ErrNotFound indicates no installments matched the requested scope.
	ErrNotFound = errors.New("collections: not found")
)

// PaymentOutcome reports what one payment run changed. Persistence failures
// are explicit values rather than swallowed logs: the distribution is always
// applied to the returned snapshot, and FailedIDs lists installments whose
// remote update did not stick.
type PaymentOutcome struct {
	Updated   []Installment
	Ledger    []Entry
	Leftover  float64
	Persisted int
	FailedIDs []int64
}

// Service owns the installment collection operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// ProcessSalePayment distributes a payment across the outstanding
// installments of one identified sale.
func (s *Service) ProcessSalePayment(ctx context.Context, clientDocument, saleNumber string, amount float64) (*PaymentOutcome, error) {
	return s.processPayment(ctx, amount, func(inst Installment) bool {
		return ClientKey(inst.ClientDocument, inst.ClientName) == ClientKey(clientDocument, "") &&
			inst.SaleNumber == saleNumber
	})
}

// ProcessGeneralPayment distributes a payment across all outstanding
// installments of a client, across all their sales, in the same priority
// order.
func (s *Service) ProcessGeneralPayment(ctx context.Context, clientDocument, clientName string, amount float64) (*PaymentOutcome, error) {
	key := ClientKey(clientDocument, clientName)
	return s.processPayment(ctx, amount, func(inst Installment) bool {
		return ClientKey(inst.ClientDocument, inst.ClientName) == key
	})
}

func (s *Service) processPayment(ctx context.Context, amount float64, match func(Installment) bool) (*PaymentOutcome, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	scope := filter(all, match)
	if len(scope) == 0 {
		return nil, ErrNotFound
	}

	today := s.now()
	dist := Distribute(scope, amount, today)

	outcome := &PaymentOutcome{
		Updated:  dist.Updated,
		Ledger:   dist.Ledger,
		Leftover: dist.Leftover,
	}
	for _, inst := range dist.Updated {
		if err := s.repo.UpdateInstallmentReceipt(ctx, inst.ID, inst.ReceivedAmount, inst.Status, inst.ReceivedDate); err != nil {
			s.logger.Error("persist installment receipt",
				slog.Int64("installment_id", inst.ID), slog.Any("error", err))
			outcome.FailedIDs = append(outcome.FailedIDs, inst.ID)
			continue
		}
		outcome.Persisted++
	}
	return outcome, nil
}

// CorrectionInput describes a manual received-amount correction.
type CorrectionInput struct {
	InstallmentID int64
	NewReceived   float64
	// AllowOverpayment must be set when the new amount exceeds the original;
	// this mirrors the explicit confirmation the legacy flow demanded.
	AllowOverpayment bool
}

// ApplyCorrection overrides an installment's received amount outside the
// distribution engine, recomputing its status.
func (s *Service) ApplyCorrection(ctx context.Context, input CorrectionInput) (*Installment, error) {
	if input.NewReceived < 0 {
		return nil, ErrNegativeCorrection
	}
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	var target *Installment
	for idx := range all {
		if all[idx].ID == input.InstallmentID {
			target = &all[idx]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}
	newReceived := money.Round2(input.NewReceived)
	if newReceived > target.OriginalAmount+money.Epsilon && !input.AllowOverpayment {
		return nil, ErrOverpaymentDeclined
	}

	target.ReceivedAmount = newReceived
	target.Status = DeriveStatus(target.OriginalAmount, target.ReceivedAmount)
	switch target.Status {
	case StatusPaid:
		if target.ReceivedDate == nil {
			received := dateOnly(s.now())
			target.ReceivedDate = &received
		}
	case StatusPending:
		target.ReceivedDate = nil
	}

	if err := s.repo.UpdateInstallmentReceipt(ctx, target.ID, target.ReceivedAmount, target.Status, target.ReceivedDate); err != nil {
		// The local copy is already corrected; surface the persistence
		// failure so the caller can retry or alert.
		s.logger.Error("persist correction", slog.Int64("installment_id", target.ID), slog.Any("error", err))
		return target, err
	}
	return target, nil
}

// ClientStatement recomputes the full balance picture for one client.
func (s *Service) ClientStatement(ctx context.Context, clientDocument, clientName string) (*ClientSummary, error) {
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	key := ClientKey(clientDocument, clientName)
	scope := filter(all, func(inst Installment) bool {
		return ClientKey(inst.ClientDocument, inst.ClientName) == key
	})
	if len(scope) == 0 {
		return nil, ErrNotFound
	}
	summary := ClientSummary{
		ClientKey:      key,
		ClientDocument: scope[0].ClientDocument,
		ClientName:     scope[0].ClientName,
		Sales:          GroupBySale(scope),
		Summary:        Aggregate(scope),
	}
	return &summary, nil
}

// SaleStatement recomputes the balance picture for one sale of one client.
func (s *Service) SaleStatement(ctx context.Context, clientDocument, saleNumber string) (*SaleSummary, error) {
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	key := ClientKey(clientDocument, "")
	scope := filter(all, func(inst Installment) bool {
		return ClientKey(inst.ClientDocument, inst.ClientName) == key && inst.SaleNumber == saleNumber
	})
	if len(scope) == 0 {
		return nil, ErrNotFound
	}
	summary := SaleSummary{
		SaleNumber:     saleNumber,
		ClientDocument: scope[0].ClientDocument,
		ClientName:     scope[0].ClientName,
		Summary:        Aggregate(scope),
	}
	return &summary, nil
}

// ClientCollectionSnapshot returns the display snapshot captured when a
// visit is scheduled: the client's remaining balance and the number of
// overdue outstanding installments. Zero values for an unknown client.
func (s *Service) ClientCollectionSnapshot(ctx context.Context, document, name string) (float64, int, error) {
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return 0, 0, err
	}
	key := ClientKey(document, name)
	scope := filter(all, func(inst Installment) bool {
		return ClientKey(inst.ClientDocument, inst.ClientName) == key
	})
	today := s.now()
	overdue := 0
	for _, inst := range scope {
		if inst.Outstanding() && inst.Overdue(today) {
			overdue++
		}
	}
	return Aggregate(scope).RemainingBalance, overdue, nil
}

// ListClientGroups returns every client with their aggregated balances.
func (s *Service) ListClientGroups(ctx context.Context) ([]ClientSummary, error) {
	all, err := s.repo.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByClient(all), nil
}

func filter(installments []Installment, match func(Installment) bool) []Installment {
	var out []Installment
	for _, inst := range installments {
		if match(inst) {
			out = append(out, inst)
		}
	}
	return out
}
