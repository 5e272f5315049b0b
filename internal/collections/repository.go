package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for installments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// scanPageSize is the fixed page size used to re-assemble the full
// installment scan; the remote store caps result sets per request.
const scanPageSize = 1000

// ListInstallments returns the full installment book, fetched page by page
// and re-assembled. Legacy status strings and due dates are normalized here
// so core logic never branches on raw storage values.
func (r *Repository) ListInstallments(ctx context.Context) ([]Installment, error) {
	const query = `
		SELECT id, sale_number, client_document, client_name,
			original_amount, received_amount, due_date, received_date, status
		FROM installments
		WHERE id > $1
		ORDER BY id
		LIMIT $2`

	var out []Installment
	var lastID int64
	for {
		rows, err := r.pool.Query(ctx, query, lastID, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("collections: list installments: %w", err)
		}

		count := 0
		for rows.Next() {
			var inst Installment
			var rawStatus string
			var dueRaw, document, name pgtype.Text
			var receivedDate pgtype.Date

			if err := rows.Scan(
				&inst.ID, &inst.SaleNumber, &document, &name,
				&inst.OriginalAmount, &inst.ReceivedAmount, &dueRaw, &receivedDate, &rawStatus,
			); err != nil {
				rows.Close()
				return nil, fmt.Errorf("collections: scan installment: %w", err)
			}

			inst.ClientDocument = document.String
			inst.ClientName = name.String
			inst.DueDateRaw = dueRaw.String
			if due, ok := ParseDueDate(dueRaw.String); ok {
				inst.DueDate = due
			}
			if receivedDate.Valid {
				received := receivedDate.Time
				inst.ReceivedDate = &received
			}
			inst.Status = NormalizeStatus(rawStatus)

			out = append(out, inst)
			lastID = inst.ID
			count++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("collections: list installments: %w", err)
		}
		if count < scanPageSize {
			return out, nil
		}
	}
}

// UpdateInstallmentReceipt applies a partial update of the payment fields by
// primary key.
func (r *Repository) UpdateInstallmentReceipt(ctx context.Context, id int64, received float64, status Status, receivedDate *time.Time) error {
	var date pgtype.Date
	if receivedDate != nil {
		date = pgtype.Date{Time: *receivedDate, Valid: true}
	}
	result, err := r.pool.Exec(ctx, `
		UPDATE installments
		SET received_amount = $2, status = $3, received_date = $4, updated_at = NOW()
		WHERE id = $1`,
		id, received, string(status), date)
	if err != nil {
		return fmt.Errorf("collections: update installment %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
