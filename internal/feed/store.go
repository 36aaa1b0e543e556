package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tabshare/tabshare/internal/metrics"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store decorates a storage.Store with change publication: every
// successful mutation of the three session-scoped tables is followed by
// a ChangeEvent on that table's channel. Receipts are immutable once
// saved and are not fed.
//
// Publication happens after the write commits, so an event always
// describes a row that exists (or existed) in the store. A crash
// between write and publish loses the notification, never the data;
// clients recover on their next initial load.
type Store struct {
	storage.Store
	client *redis.Client
}

// NewStore wraps inner so its mutations are published to the feed.
func NewStore(inner storage.Store, client *redis.Client) *Store {
	return &Store{Store: inner, client: client}
}

// Publish encodes and sends one change event.
func (s *Store) Publish(ctx context.Context, ev storage.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := s.client.Publish(ctx, channel(ev.Table, ev.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	metrics.FeedEventsPublished.WithLabelValues(ev.Table, string(ev.Op)).Inc()
	return nil
}

// publishRow publishes the given row, logging instead of failing the
// caller: the mutation has already committed, and at-least-once delivery
// is recovered by initial loads.
func (s *Store) publishRow(ctx context.Context, table string, op storage.Op, sessionID string, row any) {
	raw, err := json.Marshal(row)
	if err != nil {
		slog.Error("feed: failed to encode row", "table", table, "error", err)
		return
	}
	ev := storage.ChangeEvent{Table: table, Op: op, SessionID: sessionID, Row: raw}
	if err := s.Publish(ctx, ev); err != nil {
		slog.Error("feed: publish failed", "table", table, "op", op, "session_id", sessionID, "error", err)
	}
}

// CreateSession inserts the session and announces it.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.Store.CreateSession(ctx, session); err != nil {
		return err
	}
	s.publishRow(ctx, storage.TableSessions, storage.OpInsert, session.ID, session)
	return nil
}

// AdvanceSessionStatus performs the compare-and-set and, on success,
// publishes the full updated session row the way the substrate's UPDATE
// events carry the new row.
func (s *Store) AdvanceSessionStatus(ctx context.Context, sessionID string, from, to models.Status) error {
	if err := s.Store.AdvanceSessionStatus(ctx, sessionID, from, to); err != nil {
		return err
	}
	session, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("feed: failed to reload session after status change", "session_id", sessionID, "error", err)
		return nil
	}
	s.publishRow(ctx, storage.TableSessions, storage.OpUpdate, sessionID, session)
	return nil
}

// UpsertParticipant joins and announces the participant row.
func (s *Store) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	if err := s.Store.UpsertParticipant(ctx, p); err != nil {
		return err
	}
	s.publishRow(ctx, storage.TableParticipants, storage.OpInsert, p.SessionID, p)
	return nil
}

// UpsertClaim records and announces the claim row.
func (s *Store) UpsertClaim(ctx context.Context, c *models.Claim) error {
	if err := s.Store.UpsertClaim(ctx, c); err != nil {
		return err
	}
	s.publishRow(ctx, storage.TableClaims, storage.OpInsert, c.SessionID, c)
	return nil
}

// DeleteClaim removes the claim and announces the deletion; the event
// row carries the old key fields so consumers can evict by key.
func (s *Store) DeleteClaim(ctx context.Context, sessionID string, itemIndex int, userID string) error {
	if err := s.Store.DeleteClaim(ctx, sessionID, itemIndex, userID); err != nil {
		return err
	}
	old := models.Claim{SessionID: sessionID, ItemIndex: itemIndex, UserID: userID}
	s.publishRow(ctx, storage.TableClaims, storage.OpDelete, sessionID, old)
	return nil
}
