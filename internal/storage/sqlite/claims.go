package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/models"
)

// UpsertClaim records a claim. DO NOTHING on conflict makes claiming an
// already-claimed item a no-op success, which is what lets two devices
// race on the same tap without either failing.
func (s *SQLiteStore) UpsertClaim(ctx context.Context, c *models.Claim) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.ClaimedAt == 0 {
		c.ClaimedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO item_claims (id, session_id, item_index, user_id, claimed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, item_index, user_id) DO NOTHING`,
		c.ID, c.SessionID, c.ItemIndex, c.UserID, c.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert claim: %w", mapConstraintErr(err))
	}

	return nil
}

// DeleteClaim removes the specific (session, item, user) claim.
// Deleting an absent claim is a no-op success.
func (s *SQLiteStore) DeleteClaim(ctx context.Context, sessionID string, itemIndex int, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM item_claims WHERE session_id = ? AND item_index = ? AND user_id = ?`,
		sessionID, itemIndex, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	return nil
}

// ListClaims returns all claims for a session.
func (s *SQLiteStore) ListClaims(ctx context.Context, sessionID string) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, item_index, user_id, claimed_at
		 FROM item_claims WHERE session_id = ?
		 ORDER BY claimed_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.ID, &c.SessionID, &c.ItemIndex, &c.UserID, &c.ClaimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	return claims, nil
}
