// Package assignments maps client portfolios to collectors. A client belongs
// to at most one collector; reassignment moves the client, it never leaves a
// second row behind.
package assignments

import "time"

// Assignment links one client document to the collector responsible for
// collecting from them.
type Assignment struct {
	ID             int64     `json:"id"`
	CollectorID    int64     `json:"collector_id"`
	ClientDocument string    `json:"client_document"`
	ClientName     string    `json:"client_name,omitempty"`
	AssignedAt     time.Time `json:"assigned_at"`
}
