package visits

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTransition rejects a lifecycle operation not allowed from
	// the visit's current status.
	ErrInvalidTransition = errors.New("visits: transition not allowed from current status")
	// ErrReasonRequired rejects cancellation requests and rejections without
	// a reason.
	ErrReasonRequired = errors.New("visits: reason required")
)

func (v *Visit) appendEvent(at time.Time, kind EventKind, detail string) {
	v.Events = append(v.Events, AuditEvent{At: at, Kind: kind, Detail: detail})
	v.UpdatedAt = at
}

// Complete marks a scheduled visit as carried out. The outcome note is
// appended to the audit trail.
func (v *Visit) Complete(at time.Time, note string) error {
	if v.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	v.Status = StatusCompleted
	v.appendEvent(at, EventCompleted, note)
	return nil
}

// MarkNotFound records that the client was not found at the address.
func (v *Visit) MarkNotFound(at time.Time, note string) error {
	if v.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	v.Status = StatusNotFound
	v.appendEvent(at, EventClientNotFound, note)
	return nil
}

// RequestCancellation puts the visit into the manager approval queue.
func (v *Visit) RequestCancellation(at time.Time, reason string) error {
	if v.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	v.Status = StatusCancellationRequested
	v.CancellationReason = reason
	v.CancellationAt = &at
	v.appendEvent(at, EventCancellationRequested, reason)
	return nil
}

// ApproveCancellation is the manager-side transition to the terminal
// cancelled state.
func (v *Visit) ApproveCancellation(at time.Time, managerID int64) error {
	if v.Status != StatusCancellationRequested {
		return ErrInvalidTransition
	}
	v.Status = StatusCancelled
	v.DecidedBy = managerID
	v.DecidedAt = &at
	v.appendEvent(at, EventCancellationApproved, fmt.Sprintf("manager %d", managerID))
	return nil
}

// RejectCancellation returns the visit to the collector's agenda, recording
// why the request was denied.
func (v *Visit) RejectCancellation(at time.Time, managerID int64, reason string) error {
	if v.Status != StatusCancellationRequested {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	v.Status = StatusScheduled
	v.DecidedBy = managerID
	v.DecidedAt = &at
	v.RejectionReason = reason
	v.appendEvent(at, EventCancellationRejected, reason)
	return nil
}

// Reschedule moves a scheduled visit to a new date/time. The status is
// unchanged; the old and new slots are appended to the audit trail, which is
// never overwritten.
func (v *Visit) Reschedule(at time.Time, newDate time.Time, newTime, reason string) error {
	if v.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	detail := fmt.Sprintf("%s -> %s", SlotLabel(v.ScheduledDate, v.ScheduledTime), SlotLabel(newDate, newTime))
	if strings.TrimSpace(reason) != "" {
		detail += " (" + reason + ")"
	}
	v.ScheduledDate = newDate
	v.ScheduledTime = newTime
	v.appendEvent(at, EventRescheduled, detail)
	return nil
}
