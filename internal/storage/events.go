package storage

import (
	"context"
	"encoding/json"
)

// Table names shared by the schema, the feed channels and cache
// reconciliation.
const (
	TableSessions     = "sessions"
	TableParticipants = "session_participants"
	TableClaims       = "item_claims"
)

// Op is the kind of row change carried by a ChangeEvent.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ChangeEvent describes one row mutation, scoped to a session. Delivery
// is at-least-once and order-preserving per row, with no ordering
// guarantee across tables; consumers must reconcile by key.
//
// Row is the JSON encoding of the affected row: the new row for
// INSERT/UPDATE, the old row for DELETE.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Op        Op              `json:"op"`
	SessionID string          `json:"session_id"`
	Row       json.RawMessage `json:"row"`
}

// Feed is the change-notification half of the substrate. One
// subscription covers all three session-scoped tables.
type Feed interface {
	// Subscribe streams change events for the given session until ctx is
	// cancelled. The returned channel is closed on cancellation or on a
	// broken transport.
	Subscribe(ctx context.Context, sessionID string) (<-chan ChangeEvent, error)
}

// Publisher is implemented by stores that emit ChangeEvents after
// successful mutations.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}
