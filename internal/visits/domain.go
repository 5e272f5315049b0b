// Package visits manages scheduled client visits: batch scheduling
// validation, the visit lifecycle state machine and its append-only audit
// trail.
package visits

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status enumerates visit lifecycle states. Stored values keep the legacy
// Portuguese labels.
type Status string

const (
	StatusScheduled             Status = "agendada"
	StatusCompleted             Status = "realizada"
	StatusNotFound              Status = "nao_encontrado"
	StatusCancellationRequested Status = "cancelamento_solicitado"
	StatusCancelled             Status = "cancelada"
)

// EventKind tags audit trail entries.
type EventKind string

const (
	EventScheduled             EventKind = "scheduled"
	EventRescheduled           EventKind = "rescheduled"
	EventCompleted             EventKind = "completed"
	EventClientNotFound        EventKind = "client_not_found"
	EventCancellationRequested EventKind = "cancellation_requested"
	EventCancellationApproved  EventKind = "cancellation_approved"
	EventCancellationRejected  EventKind = "cancellation_rejected"
)

// AuditEvent is one entry of a visit's append-only history. Events are
// machine-readable; rendering to display text happens at the boundary.
type AuditEvent struct {
	At     time.Time `json:"at"`
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Visit represents one planned or executed contact attempt with a client.
// Visits are never hard-deleted; cancellation is a status.
type Visit struct {
	ID             uuid.UUID `json:"id"`
	CollectorID    int64     `json:"collector_id"`
	ClientDocument string    `json:"client_document"`
	ClientName     string    `json:"client_name"`
	ScheduledDate  time.Time `json:"scheduled_date"`
	// ScheduledTime is the "HH:MM" slot; empty means no fixed time.
	ScheduledTime string       `json:"scheduled_time,omitempty"`
	Status        Status       `json:"status"`
	Events        []AuditEvent `json:"events"`

	// Snapshot fields captured at scheduling time for offline route display.
	Address      string  `json:"address,omitempty"`
	PendingValue float64 `json:"pending_value"`
	OverdueCount int     `json:"overdue_count"`

	// Cancellation workflow.
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancellationAt     *time.Time `json:"cancellation_at,omitempty"`
	DecidedBy          int64      `json:"decided_by,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the visit still occupies the collector's agenda.
func (v Visit) Active() bool {
	return v.Status == StatusScheduled || v.Status == StatusCancellationRequested
}

// Notes renders the audit trail as human-readable lines, oldest first. This
// is the only place events become text.
func (v Visit) Notes() string {
	lines := make([]string, 0, len(v.Events))
	for _, e := range v.Events {
		line := fmt.Sprintf("[%s] %s", e.At.Format("2006-01-02 15:04"), e.Kind)
		if e.Detail != "" {
			line += ": " + e.Detail
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// SlotLabel formats the visit's date/time pair for conflict messages.
func SlotLabel(date time.Time, timeSlot string) string {
	label := date.Format("2006-01-02")
	if timeSlot != "" {
		label += " " + timeSlot
	}
	return label
}
