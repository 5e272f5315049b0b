package assignments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldcollect/fieldcollect/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReplaceAssignment moves a client to the collector inside one transaction:
// the client's previous assignment row, if any, is deleted before the new one
// is inserted. This delete-by-client is the only row deletion in the system.
func (r *Repository) ReplaceAssignment(ctx context.Context, a Assignment) (*Assignment, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM client_assignments WHERE client_document = $1`, a.ClientDocument); err != nil {
			return fmt.Errorf("assignments: clear previous: %w", err)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO client_assignments (collector_id, client_document, client_name, assigned_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			a.CollectorID, a.ClientDocument, a.ClientName, a.AssignedAt,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("assignments: insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByCollector returns the collector's portfolio ordered by client name.
func (r *Repository) ListByCollector(ctx context.Context, collectorID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, collector_id, client_document, COALESCE(client_name, ''), assigned_at
		FROM client_assignments
		WHERE collector_id = $1
		ORDER BY client_name, client_document`, collectorID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.CollectorID, &a.ClientDocument, &a.ClientName, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("assignments: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assignments: list: %w", err)
	}
	return out, nil
}
