package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// RosterService tracks who has joined a session.
type RosterService struct {
	store storage.Store
}

// NewRosterService creates a RosterService with the given storage backend.
func NewRosterService(store storage.Store) *RosterService {
	return &RosterService{store: store}
}

// Join enrolls a user in a session. Joining is idempotent: the upsert
// lands on the (session, user) unique key, re-joining updates the
// display name and never duplicates membership. Both join entry points
// (typed code and direct link) resolve here.
func (r *RosterService) Join(ctx context.Context, sessionID, userID, displayName string) error {
	p := &models.Participant{
		SessionID:   sessionID,
		UserID:      userID,
		DisplayName: displayName,
	}
	if err := r.store.UpsertParticipant(ctx, p); err != nil {
		slog.Error("Join failed", "session_id", sessionID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to join session: %w", err)
	}
	slog.Debug("participant joined", "session_id", sessionID, "user_id", userID)
	return nil
}

// List returns the roster ordered by join time. The order only affects
// display; settlement math depends on the count.
func (r *RosterService) List(ctx context.Context, sessionID string) ([]models.Participant, error) {
	return r.store.ListParticipants(ctx, sessionID)
}
