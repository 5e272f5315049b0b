package assignments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RepositoryPort defines the persistence operations for assignments.
type RepositoryPort interface {
	ReplaceAssignment(ctx context.Context, a Assignment) (*Assignment, error)
	ListByCollector(ctx context.Context, collectorID int64) ([]Assignment, error)
}

// ErrNoClients rejects a reassignment request with an empty client list.
var ErrNoClients = errors.New("assignments: no clients given")

// ReassignOutcome reports a batch reassignment run.
type ReassignOutcome struct {
	Assigned []Assignment `json:"assigned"`
	Failed   []string     `json:"failed,omitempty"`
	Message  string       `json:"message"`
}

// Service owns portfolio assignment operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// ReassignClients moves the given clients to the collector. The batch is a
// sequential best-effort loop: each client is moved independently and
// individual failures are collected, never aborting the rest.
func (s *Service) ReassignClients(ctx context.Context, collectorID int64, documents []string) (*ReassignOutcome, error) {
	if len(documents) == 0 {
		return nil, ErrNoClients
	}

	outcome := &ReassignOutcome{}
	now := s.now()
	for _, doc := range documents {
		assigned, err := s.repo.ReplaceAssignment(ctx, Assignment{
			CollectorID:    collectorID,
			ClientDocument: doc,
			AssignedAt:     now,
		})
		if err != nil {
			s.logger.Error("reassign client",
				slog.String("client", doc), slog.Int64("collector_id", collectorID), slog.Any("error", err))
			outcome.Failed = append(outcome.Failed, doc)
			continue
		}
		outcome.Assigned = append(outcome.Assigned, *assigned)
	}
	outcome.Message = fmt.Sprintf("%d succeeded, %d failed", len(outcome.Assigned), len(outcome.Failed))
	return outcome, nil
}

// Portfolio returns the collector's current client list.
func (s *Service) Portfolio(ctx context.Context, collectorID int64) ([]Assignment, error) {
	return s.repo.ListByCollector(ctx, collectorID)
}
