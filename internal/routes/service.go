// Package routes serves the collector's daily route progress. Summaries are
// cached in redis purely for display; any balance actually shown to a client
// is recomputed from the installment aggregator, never read from here.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldcollect/fieldcollect/internal/money"
	"github.com/fieldcollect/fieldcollect/internal/visits"
)

// Summary is one collector's route progress for today.
type Summary struct {
	CollectorID  int64     `json:"collector_id"`
	VisitsToday  int       `json:"visits_today"`
	Completed    int       `json:"completed"`
	PendingValue float64   `json:"pending_value"`
	ComputedAt   time.Time `json:"computed_at"`
}

// VisitSource lists visits. Implemented by the visits service.
type VisitSource interface {
	List(ctx context.Context, filter visits.ListFilter) ([]visits.Visit, error)
}

// BalanceSource recomputes a client's outstanding balance. Implemented by the
// collections service.
type BalanceSource interface {
	ClientCollectionSnapshot(ctx context.Context, document, name string) (pendingValue float64, overdueCount int, err error)
}

// DefaultTTL bounds how stale a cached summary may get before the next
// request recomputes it.
const DefaultTTL = 15 * time.Minute

// Service computes and caches route summaries.
type Service struct {
	visits   VisitSource
	balances BalanceSource
	rdb      *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. A non-positive ttl falls back to
// DefaultTTL.
func NewService(visitSource VisitSource, balances BalanceSource, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		visits:   visitSource,
		balances: balances,
		rdb:      rdb,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func cacheKey(collectorID int64) string {
	return fmt.Sprintf("routes:summary:%d", collectorID)
}

// Summary returns the collector's route summary, recomputing on cache miss.
func (s *Service) Summary(ctx context.Context, collectorID int64) (*Summary, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cacheKey(collectorID)).Bytes()
		if err == nil {
			var cached Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("route summary cache read", slog.Any("error", err))
		}
	}
	return s.Recompute(ctx, collectorID)
}

// Recompute rebuilds the summary from the visit and installment records and
// refreshes the cache. Cache write failures are logged, never fatal.
func (s *Service) Recompute(ctx context.Context, collectorID int64) (*Summary, error) {
	all, err := s.visits.List(ctx, visits.ListFilter{CollectorID: collectorID})
	if err != nil {
		return nil, fmt.Errorf("routes: list visits: %w", err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	summary := &Summary{CollectorID: collectorID, ComputedAt: now}

	for _, v := range all {
		d := v.ScheduledDate
		if !time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).Equal(today) {
			continue
		}
		summary.VisitsToday++
		if v.Status == visits.StatusCompleted {
			summary.Completed++
		}
		if !v.Active() {
			continue
		}
		pending, _, err := s.balances.ClientCollectionSnapshot(ctx, v.ClientDocument, v.ClientName)
		if err != nil {
			s.logger.Warn("recompute client balance",
				slog.String("client", v.ClientDocument), slog.Any("error", err))
			// Fall back to the snapshot captured at scheduling time.
			pending = v.PendingValue
		}
		summary.PendingValue = money.Round2(summary.PendingValue + pending)
	}

	if s.rdb != nil {
		raw, err := json.Marshal(summary)
		if err == nil {
			err = s.rdb.Set(ctx, cacheKey(collectorID), raw, s.ttl).Err()
		}
		if err != nil {
			s.logger.Warn("route summary cache write", slog.Any("error", err))
		}
	}
	return summary, nil
}

// WarmAll recomputes summaries for every collector with visits on record.
// Used by the periodic warmup job.
func (s *Service) WarmAll(ctx context.Context) (int, error) {
	all, err := s.visits.List(ctx, visits.ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("routes: list visits: %w", err)
	}
	seen := make(map[int64]bool)
	for _, v := range all {
		seen[v.CollectorID] = true
	}
	warmed := 0
	for collectorID := range seen {
		if _, err := s.Recompute(ctx, collectorID); err != nil {
			s.logger.Error("warm route summary",
				slog.Int64("collector_id", collectorID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	return warmed, nil
}
