package visits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcollect/fieldcollect/internal/shared"
)

// RepositoryPort defines the record-store operations for visits.
type RepositoryPort interface {
	InsertVisit(ctx context.Context, visit Visit) (*Visit, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListVisits(ctx context.Context, filter ListFilter) ([]Visit, error)
	UpdateVisit(ctx context.Context, visit Visit) error
}

// BalanceSource supplies the balance snapshot captured on each visit at
// scheduling time. Implemented by the collections service.
type BalanceSource interface {
	ClientCollectionSnapshot(ctx context.Context, document, name string) (pendingValue float64, overdueCount int, err error)
}

// ApprovalSink records the manager approval history of the cancellation
// workflow. Best-effort: recording failures are logged, never fatal.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// ListFilter narrows visit listings.
type ListFilter struct {
	CollectorID int64
	Status      Status
}

var (
	// ErrBatchBlocked signals hard validation errors; nothing was created.
	ErrBatchBlocked = errors.New("visits: batch blocked by validation errors")
	// ErrConfirmationRequired signals soft conflicts awaiting an explicit
	// proceed-anyway confirmation; nothing was created.
	ErrConfirmationRequired = errors.New("visits: slot conflicts require confirmation")
	// ErrNotFound indicates the visit does not exist.
	ErrNotFound = errors.New("visits: not found")
	// ErrPersistFailed marks a transition that was applied locally but did
	// not reach the record store.
	ErrPersistFailed = errors.New("visits: state changed locally but persistence failed")
)

// ScheduleOutcome reports a batch scheduling run.
type ScheduleOutcome struct {
	Validation ValidationResult `json:"validation"`
	Created    []Visit          `json:"created"`
	Skipped    []string         `json:"skipped,omitempty"`
	Failed     int              `json:"failed"`
	Message    string           `json:"message"`
}

// Service owns scheduled-visit operations.
type Service struct {
	repo      RepositoryPort
	balances  BalanceSource
	approvals ApprovalSink
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, balances BalanceSource, approvals ApprovalSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, balances: balances, approvals: approvals, logger: logger, now: time.Now}
}

// ScheduleBatch validates and creates a batch of visits for one collector.
// Hard errors abort the whole batch; conflicts require confirm=true. Creation
// itself is a sequential best-effort loop: individual failures are counted
// and the loop continues. Clients that already have an active visit are
// skipped, never double-booked.
func (s *Service) ScheduleBatch(ctx context.Context, collectorID int64, proposals []Proposal, confirm bool) (*ScheduleOutcome, error) {
	now := s.now()
	outcome := &ScheduleOutcome{Validation: ValidateBatch(proposals, now)}
	if outcome.Validation.Blocked() {
		return outcome, ErrBatchBlocked
	}
	if outcome.Validation.NeedsConfirmation() && !confirm {
		return outcome, ErrConfirmationRequired
	}

	existing, err := s.repo.ListVisits(ctx, ListFilter{CollectorID: collectorID})
	if err != nil {
		return outcome, err
	}
	active := make(map[string]bool)
	for _, v := range existing {
		if v.Active() {
			active[v.ClientDocument] = true
		}
	}

	for _, p := range proposals {
		if active[p.ClientDocument] {
			outcome.Skipped = append(outcome.Skipped, fmt.Sprintf("%s: já possui visita ativa", p.ClientName))
			continue
		}

		visit := Visit{
			CollectorID:    collectorID,
			ClientDocument: p.ClientDocument,
			ClientName:     p.ClientName,
			ScheduledDate:  p.Date,
			ScheduledTime:  p.Time,
			Status:         StatusScheduled,
			Address:        p.Address,
			CreatedAt:      now,
			UpdatedAt:      now,
			Events: []AuditEvent{
				{At: now, Kind: EventScheduled, Detail: SlotLabel(p.Date, p.Time)},
			},
		}
		if s.balances != nil {
			pending, overdue, err := s.balances.ClientCollectionSnapshot(ctx, p.ClientDocument, p.ClientName)
			if err != nil {
				// Snapshot is display data only; scheduling proceeds.
				s.logger.Warn("capture balance snapshot", slog.String("client", p.ClientDocument), slog.Any("error", err))
			} else {
				visit.PendingValue = pending
				visit.OverdueCount = overdue
			}
		}

		created, err := s.repo.InsertVisit(ctx, visit)
		if err != nil {
			s.logger.Error("insert visit", slog.String("client", p.ClientDocument), slog.Any("error", err))
			outcome.Failed++
			continue
		}
		active[p.ClientDocument] = true
		outcome.Created = append(outcome.Created, *created)
	}
	outcome.Message = fmt.Sprintf("%d succeeded, %d failed", len(outcome.Created), outcome.Failed)
	return outcome, nil
}

// Complete marks a visit as carried out.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, note string) (*Visit, error) {
	return s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.Complete(at, note)
	})
}

// MarkNotFound records a frustrated visit.
func (s *Service) MarkNotFound(ctx context.Context, id uuid.UUID, note string) (*Visit, error) {
	return s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.MarkNotFound(at, note)
	})
}

// RequestCancellation submits a visit for manager approval.
func (s *Service) RequestCancellation(ctx context.Context, id uuid.UUID, collectorID int64, reason string) (*Visit, error) {
	visit, err := s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.RequestCancellation(at, reason)
	})
	if visit != nil && err == nil {
		s.recordApproval(ctx, visit.ID, collectorID, shared.ApprovalSubmit, reason)
	}
	return visit, err
}

// ApproveCancellation is the manager decision cancelling the visit.
func (s *Service) ApproveCancellation(ctx context.Context, id uuid.UUID, managerID int64) (*Visit, error) {
	visit, err := s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.ApproveCancellation(at, managerID)
	})
	if visit != nil && err == nil {
		s.recordApproval(ctx, visit.ID, managerID, shared.ApprovalApprove, "")
	}
	return visit, err
}

// RejectCancellation returns the visit to the agenda with the denial reason.
func (s *Service) RejectCancellation(ctx context.Context, id uuid.UUID, managerID int64, reason string) (*Visit, error) {
	visit, err := s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.RejectCancellation(at, managerID, reason)
	})
	if visit != nil && err == nil {
		s.recordApproval(ctx, visit.ID, managerID, shared.ApprovalReject, reason)
	}
	return visit, err
}

// Reschedule moves a visit to a new slot, keeping its status.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newTime, reason string) (*Visit, error) {
	return s.transition(ctx, id, func(v *Visit, at time.Time) error {
		return v.Reschedule(at, newDate, newTime, reason)
	})
}

// List returns visits matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Visit, error) {
	return s.repo.ListVisits(ctx, filter)
}

// transition loads the visit, applies the state change and attempts to
// persist it. On persistence failure the mutated visit is still returned
// together with ErrPersistFailed, so the caller decides whether to retry or
// alert instead of the failure being swallowed.
func (s *Service) transition(ctx context.Context, id uuid.UUID, apply func(*Visit, time.Time) error) (*Visit, error) {
	visit, err := s.repo.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	if visit == nil {
		return nil, ErrNotFound
	}
	if err := apply(visit, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVisit(ctx, *visit); err != nil {
		s.logger.Error("persist visit transition",
			slog.String("visit_id", visit.ID.String()), slog.Any("error", err))
		return visit, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return visit, nil
}

func (s *Service) recordApproval(ctx context.Context, ref uuid.UUID, actorID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  "visits",
		RefID:   ref,
		ActorID: actorID,
		Action:  action,
		Note:    note,
		At:      s.now(),
	})
	if err != nil {
		s.logger.Warn("record approval", slog.Any("error", err))
	}
}
