package visits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for scheduled visits.
// Rows are never deleted; every lifecycle change is an update.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const visitColumns = `id, collector_id, client_document, client_name,
	scheduled_date, scheduled_time, status, events,
	address, pending_value, overdue_count,
	cancellation_reason, cancellation_at, decided_by, decided_at, rejection_reason,
	created_at, updated_at`

// InsertVisit creates a visit with a store-assigned id.
func (r *Repository) InsertVisit(ctx context.Context, visit Visit) (*Visit, error) {
	events, err := json.Marshal(visit.Events)
	if err != nil {
		return nil, fmt.Errorf("visits: marshal events: %w", err)
	}

	query := `
		INSERT INTO scheduled_visits (
			collector_id, client_document, client_name,
			scheduled_date, scheduled_time, status, events,
			address, pending_value, overdue_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query,
		visit.CollectorID,
		visit.ClientDocument,
		visit.ClientName,
		visit.ScheduledDate,
		textOrNull(visit.ScheduledTime),
		string(visit.Status),
		events,
		visit.Address,
		visit.PendingValue,
		visit.OverdueCount,
	).Scan(&visit.ID, &visit.CreatedAt, &visit.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("visits: insert visit: %w", err)
	}
	return &visit, nil
}

// GetVisit retrieves a visit by id.
func (r *Repository) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+visitColumns+` FROM scheduled_visits WHERE id = $1`, id)
	visit, err := scanVisit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("visits: get visit: %w", err)
	}
	return visit, nil
}

// ListVisits returns visits matching the filter, newest first.
func (r *Repository) ListVisits(ctx context.Context, filter ListFilter) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM scheduled_visits WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.CollectorID > 0 {
		query += fmt.Sprintf(" AND collector_id = $%d", argNum)
		args = append(args, filter.CollectorID)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY scheduled_date DESC, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("visits: list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("visits: scan visit: %w", err)
		}
		visits = append(visits, *visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("visits: list visits: %w", err)
	}
	return visits, nil
}

// UpdateVisit persists the mutable visit fields by primary key.
func (r *Repository) UpdateVisit(ctx context.Context, visit Visit) error {
	events, err := json.Marshal(visit.Events)
	if err != nil {
		return fmt.Errorf("visits: marshal events: %w", err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_visits
		SET scheduled_date = $2, scheduled_time = $3, status = $4, events = $5,
			cancellation_reason = $6, cancellation_at = $7,
			decided_by = $8, decided_at = $9, rejection_reason = $10,
			updated_at = NOW()
		WHERE id = $1`,
		visit.ID,
		visit.ScheduledDate,
		textOrNull(visit.ScheduledTime),
		string(visit.Status),
		events,
		textOrNull(visit.CancellationReason),
		visit.CancellationAt,
		int8OrNull(visit.DecidedBy),
		visit.DecidedAt,
		textOrNull(visit.RejectionReason),
	)
	if err != nil {
		return fmt.Errorf("visits: update visit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*Visit, error) {
	var v Visit
	var rawStatus string
	var events []byte
	var scheduledTime, cancellationReason, rejectionReason, address pgtype.Text
	var decidedBy pgtype.Int8
	var cancellationAt, decidedAt pgtype.Timestamptz

	err := row.Scan(
		&v.ID, &v.CollectorID, &v.ClientDocument, &v.ClientName,
		&v.ScheduledDate, &scheduledTime, &rawStatus, &events,
		&address, &v.PendingValue, &v.OverdueCount,
		&cancellationReason, &cancellationAt, &decidedBy, &decidedAt, &rejectionReason,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Status = Status(rawStatus)
	v.ScheduledTime = scheduledTime.String
	v.Address = address.String
	v.CancellationReason = cancellationReason.String
	v.RejectionReason = rejectionReason.String
	v.DecidedBy = decidedBy.Int64
	if cancellationAt.Valid {
		v.CancellationAt = &cancellationAt.Time
	}
	if decidedAt.Valid {
		v.DecidedAt = &decidedAt.Time
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &v.Events); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func int8OrNull(n int64) pgtype.Int8 {
	if n == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: n, Valid: true}
}
