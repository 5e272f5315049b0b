package visits

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Proposal is one (client, date, time) tuple of a collector's batch
// scheduling request.
type Proposal struct {
	ClientDocument string
	ClientName     string
	Date           time.Time
	// Time is the optional "HH:MM" slot.
	Time string
	// Address is carried onto the visit as a display snapshot.
	Address string
}

// ValidationResult separates hard errors from soft conflicts. Errors block
// the whole batch; conflicts only require an explicit confirmation before
// proceeding.
type ValidationResult struct {
	Errors    []string `json:"errors,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Blocked reports whether the batch must be aborted.
func (r ValidationResult) Blocked() bool {
	return len(r.Errors) > 0
}

// NeedsConfirmation reports whether the caller has to confirm before any
// visit is created.
func (r ValidationResult) NeedsConfirmation() bool {
	return !r.Blocked() && len(r.Conflicts) > 0
}

// ValidateBatch checks a batch of proposals for one collector before any
// visit is created. Dates strictly before today (calendar date, not
// date-time) are hard errors. Two or more clients sharing the exact same
// (date, time) slot produce one conflict entry listing every client name.
func ValidateBatch(proposals []Proposal, today time.Time) ValidationResult {
	var result ValidationResult
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	type slot struct {
		date time.Time
		time string
	}
	bySlot := make(map[slot][]string)
	slotOrder := make([]slot, 0)

	for _, p := range proposals {
		name := p.ClientName
		if name == "" {
			name = p.ClientDocument
		}
		date := time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, p.Date.Location())
		if date.Before(todayDate) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: Data não pode ser anterior a hoje (%s)", name, date.Format("2006-01-02")))
			continue
		}
		key := slot{date: date, time: p.Time}
		if _, seen := bySlot[key]; !seen {
			slotOrder = append(slotOrder, key)
		}
		bySlot[key] = append(bySlot[key], name)
	}

	for _, key := range slotOrder {
		names := bySlot[key]
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		result.Conflicts = append(result.Conflicts,
			fmt.Sprintf("%s: %s", SlotLabel(key.date, key.time), strings.Join(names, ", ")))
	}
	return result
}
