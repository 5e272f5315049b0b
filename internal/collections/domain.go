// Package collections implements receivables management for field
// collection: installment ordering, payment distribution and sale/client
// balance aggregation.
package collections

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fieldcollect/fieldcollect/internal/money"
)

// Status enumerates installment collection statuses. Stored values follow the
// legacy Portuguese labels; anything else found in storage is normalized on
// read.
type Status string

const (
	StatusPending Status = "pendente"
	StatusPartial Status = "parcialmente_pago"
	StatusPaid    Status = "recebido"
)

// NormalizeStatus maps free-text legacy status strings onto the closed enum.
// Unknown values fall back to pending; callers holding amounts should prefer
// DeriveStatus, which is authoritative.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "recebido", "pago", "paga", "quitado", "paid":
		return StatusPaid
	case "parcialmente_pago", "parcialmente pago", "parcial", "partial":
		return StatusPartial
	default:
		return StatusPending
	}
}

// DeriveStatus recomputes the display status from amounts. Near-equality
// within the rounding epsilon counts as fully paid.
func DeriveStatus(original, received float64) Status {
	switch {
	case received <= 0:
		return StatusPending
	case received >= original-money.Epsilon:
		return StatusPaid
	default:
		return StatusPartial
	}
}

// Installment is the indivisible billing unit of a sale.
type Installment struct {
	ID             int64   `json:"id"`
	SaleNumber     string  `json:"sale_number"`
	ClientDocument string  `json:"client_document"`
	ClientName     string  `json:"client_name"`
	OriginalAmount float64 `json:"original_amount"`
	ReceivedAmount float64 `json:"received_amount"`
	// DueDate is zero when the stored value could not be parsed; DueDateRaw
	// keeps the original string for display.
	DueDate      time.Time  `json:"due_date"`
	DueDateRaw   string     `json:"due_date_raw,omitempty"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
	Status       Status     `json:"status"`
}

// Pending returns the outstanding balance of the installment.
func (i Installment) Pending() float64 {
	return money.Round2(i.OriginalAmount - i.ReceivedAmount)
}

// Outstanding reports whether the installment still has a collectible balance.
func (i Installment) Outstanding() bool {
	return i.Pending() > money.Epsilon
}

// Overdue reports whether the installment's due date falls strictly before
// today, both truncated to midnight. Installments without a parseable due
// date are never overdue.
func (i Installment) Overdue(today time.Time) bool {
	if i.DueDate.IsZero() {
		return false
	}
	return dateOnly(i.DueDate).Before(dateOnly(today))
}

// Entry records one allocation made by the distribution engine.
type Entry struct {
	InstallmentID   int64   `json:"installment_id"`
	SaleNumber      string  `json:"sale_number"`
	Applied         float64 `json:"applied"`
	ResultingStatus Status  `json:"resulting_status"`
}

var dueDateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseDueDate accepts the date formats found in legacy records. The second
// return value is false when none matched; such installments are treated as
// not overdue and sort last.
func ParseDueDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ClientKey builds the identity key grouping a client's installments: the
// trimmed document, or the diacritic-folded lowercased name when the document
// is absent.
func ClientKey(document, name string) string {
	if doc := strings.TrimSpace(document); doc != "" {
		return doc
	}
	folded, _, err := transform.String(foldTransformer, strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}
