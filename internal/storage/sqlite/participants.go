package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/models"
)

// UpsertParticipant joins a user to a session. The upsert lands on the
// (session_id, user_id) unique index: re-joining refreshes the display
// name but keeps the original row id and joined_at, so roster ordering
// is stable across repeated joins.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.JoinedAt == 0 {
		p.JoinedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_participants (id, session_id, user_id, display_name, joined_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, user_id)
		 DO UPDATE SET display_name = excluded.display_name`,
		p.ID, p.SessionID, p.UserID, p.DisplayName, p.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", mapConstraintErr(err))
	}

	return nil
}

// ListParticipants returns the roster ordered by joined_at ascending.
func (s *SQLiteStore) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, display_name, joined_at
		 FROM session_participants WHERE session_id = ?
		 ORDER BY joined_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.UserID, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}
