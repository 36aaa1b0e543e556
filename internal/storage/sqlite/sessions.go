package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// CreateSession inserts a new session row. A join-code collision with
// another non-finished session surfaces as storage.ErrConflict via the
// partial unique index; the registry retries with a fresh code.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = models.StatusLobby
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, receipt_id, host_id, join_code, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.ReceiptID, session.HostID, session.JoinCode,
		string(session.Status), session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", mapConstraintErr(err))
	}

	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.querySession(ctx,
		`SELECT id, receipt_id, host_id, join_code, status, created_at
		 FROM sessions WHERE id = ?`,
		sessionID,
	)
}

// FindSessionByCode looks up a non-finished session by join code.
// Finished sessions are not joinable by code, so they never match.
func (s *SQLiteStore) FindSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	return s.querySession(ctx,
		`SELECT id, receipt_id, host_id, join_code, status, created_at
		 FROM sessions WHERE join_code = ? AND status != ?`,
		code, string(models.StatusFinished),
	)
}

func (s *SQLiteStore) querySession(ctx context.Context, query string, args ...any) (*models.Session, error) {
	session := &models.Session{}
	var status string

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&session.ID, &session.ReceiptID, &session.HostID,
		&session.JoinCode, &status, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Status = models.Status(status)
	return session, nil
}

// DeleteSession removes a session row. This is the compensating action
// for a failed host enrollment right after CreateSession; participant
// and claim rows cascade.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AdvanceSessionStatus is a compare-and-set on the status column. The
// WHERE clause pins the expected current status, so a stale or reversed
// transition updates no rows and reports storage.ErrConflict instead of
// silently rewinding the lifecycle.
func (s *SQLiteStore) AdvanceSessionStatus(ctx context.Context, sessionID string, from, to models.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE id = ? AND status = ?`,
		string(to), sessionID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetSession(ctx, sessionID); err != nil {
			return err
		}
		return fmt.Errorf("session %s is not in status %s: %w", sessionID, from, storage.ErrConflict)
	}

	return nil
}
