// Package storage provides abstractions for the persistent substrate the
// session engine is built on: row storage with unique-constraint
// enforcement, plus a change-notification feed.
package storage

import (
	"context"
	"errors"

	"github.com/tabshare/tabshare/internal/models"
)

var (
	// ErrNotFound is returned when a lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a unique
	// constraint, or a conditional update matched no row.
	ErrConflict = errors.New("conflict")
)

// Store defines the row-storage half of the substrate. There is no
// central coordinator: every shared entity is an upsert/delete-by-key
// collection guarded by unique indexes, so concurrent writers are
// absorbed by the store instead of coordinated by the engine.
//
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateReceipt persists a new receipt. ID and CreatedAt are
	// populated by the store when unset.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error

	// GetReceipt retrieves a receipt by ID. Returns ErrNotFound if absent.
	GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error)

	// CreateSession inserts a new session row. Returns ErrConflict when
	// the join code collides with another non-finished session.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by ID. Returns ErrNotFound if absent.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// FindSessionByCode looks up a non-finished session by its join code,
	// already normalized to uppercase by the caller. Returns ErrNotFound
	// when no active match exists; finished sessions are never returned.
	FindSessionByCode(ctx context.Context, code string) (*models.Session, error)

	// DeleteSession removes a session row. Used only as the compensating
	// action when host enrollment fails right after creation.
	DeleteSession(ctx context.Context, sessionID string) error

	// AdvanceSessionStatus moves a session from the expected current
	// status to the target status in one conditional update. Returns
	// ErrConflict when the session is no longer in the expected status,
	// which is what makes reverse and skipping transitions unobservable.
	AdvanceSessionStatus(ctx context.Context, sessionID string, from, to models.Status) error

	// UpsertParticipant joins a user to a session, keyed on
	// (session_id, user_id). Re-joining updates the display name and
	// preserves the original joined_at.
	UpsertParticipant(ctx context.Context, p *models.Participant) error

	// ListParticipants returns the roster ordered by joined_at ascending.
	ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error)

	// UpsertClaim records a claim, keyed on
	// (session_id, item_index, user_id). Claiming an already-claimed item
	// is a no-op success.
	UpsertClaim(ctx context.Context, c *models.Claim) error

	// DeleteClaim removes the specific claim if present; removing an
	// absent claim is a no-op success.
	DeleteClaim(ctx context.Context, sessionID string, itemIndex int, userID string) error

	// ListClaims returns all claims for a session.
	ListClaims(ctx context.Context, sessionID string) ([]models.Claim, error)

	// Close releases any resources held by the store.
	Close() error
}
