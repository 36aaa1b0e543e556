// Package service implements the session engine's operations over the
// storage substrate: the session registry and state machine, the
// participant roster, and the claim ledger. There is no coordinating
// server behind these services; every client runs them against the same
// store, and idempotent upsert/delete-by-key semantics absorb the races.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tabshare/tabshare/internal/metrics"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// codeAttempts bounds the join-code generation retry loop.
const codeAttempts = 3

// SessionService creates and looks up splitting sessions and owns the
// lifecycle state machine.
type SessionService struct {
	store storage.Store

	// newCode is swappable so tests can force collisions.
	newCode func() string
}

// NewSessionService creates a SessionService with the given storage backend.
func NewSessionService(store storage.Store) *SessionService {
	return &SessionService{store: store, newCode: newJoinCode}
}

// CreateSession starts a split over the given receipt, hosted by hostID.
// The join code is regenerated up to three times on a uniqueness
// collision; the host is enrolled as the first participant. If host
// enrollment fails the session row is deleted again so no empty lobby
// persists.
func (s *SessionService) CreateSession(ctx context.Context, receiptID, hostID, hostName string) (*models.Session, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		session := &models.Session{
			ReceiptID: receiptID,
			HostID:    hostID,
			JoinCode:  s.newCode(),
			Status:    models.StatusLobby,
		}

		err := s.store.CreateSession(ctx, session)
		if errors.Is(err, storage.ErrConflict) {
			metrics.JoinCodeRetries.Inc()
			slog.Debug("join code collided, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			slog.Error("CreateSession failed", "receipt_id", receiptID, "error", err)
			return nil, err
		}

		host := &models.Participant{
			SessionID:   session.ID,
			UserID:      hostID,
			DisplayName: hostName,
		}
		if err := s.store.UpsertParticipant(ctx, host); err != nil {
			slog.Error("CreateSession failed to enroll host", "session_id", session.ID, "error", err)
			// Compensate so no zero-participant lobby survives. Best
			// effort: a crash between the two writes still orphans.
			if derr := s.store.DeleteSession(ctx, session.ID); derr != nil {
				slog.Error("CreateSession failed to clean up orphaned session", "session_id", session.ID, "error", derr)
			}
			return nil, fmt.Errorf("failed to enroll host: %w", err)
		}

		slog.Info("session created", "session_id", session.ID, "join_code", session.JoinCode)
		return session, nil
	}

	return nil, ErrCodeExhausted
}

// FindSessionByCode resolves a human-typed join code to a non-finished
// session. Codes are case-insensitive; finished sessions are not
// joinable, so stragglers cannot enter a closed split.
func (s *SessionService) FindSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	session, err := s.store.FindSessionByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("no active session with code %s: %w", normalized, err)
	}
	return session, nil
}

// GetSession retrieves a session by its identifier (e.g. from a
// scanned QR link).
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// AdvanceSession moves the session to the target status. Only the host
// may advance, and only along lobby->active->finished. The store-level
// update is conditional on the current status, so a concurrent advance
// cannot be replayed backwards.
func (s *SessionService) AdvanceSession(ctx context.Context, sessionID, userID string, target models.Status) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.HostID != userID {
		return ErrNotHost
	}
	if !session.Status.CanAdvanceTo(target) {
		return fmt.Errorf("%s -> %s: %w", session.Status, target, ErrInvalidTransition)
	}

	if err := s.store.AdvanceSessionStatus(ctx, sessionID, session.Status, target); err != nil {
		slog.Error("AdvanceSession failed", "session_id", sessionID, "target", target, "error", err)
		return err
	}

	slog.Info("session advanced", "session_id", sessionID, "status", target)
	return nil
}
