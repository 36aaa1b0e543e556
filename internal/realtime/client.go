// Package realtime keeps one client's local view of a session converged
// with the shared store. There is no authoritative in-memory copy
// anywhere: every device holds independent caches of roster, ledger and
// session state, reconciled by natural composite key from the change
// feed. At-least-once and cross-table-reordered delivery are absorbed
// by keyed upserts, never by trusting event order.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tabshare/tabshare/internal/calculator"
	"github.com/tabshare/tabshare/internal/metrics"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/service"
	"github.com/tabshare/tabshare/internal/storage"
)

// Callbacks are invoked from the client's apply goroutine whenever the
// local view changes. Handlers receive defensive copies and must not
// block for long; a nil handler is skipped.
type Callbacks struct {
	// OnRoster fires when the participant list changes.
	OnRoster func([]models.Participant)

	// OnClaims fires when the claim ledger changes.
	OnClaims func([]models.Claim)

	// OnStatus fires when the session advances phase.
	OnStatus func(models.Status)

	// OnSettled fires exactly once, when the client first observes
	// status finished, with the viewer's settlement computed from the
	// converged local snapshot.
	OnSettled func(calculator.Settlement)
}

// Client is one participant's live connection to a session.
type Client struct {
	sessionID string
	userID    string
	claims    *service.ClaimService

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	status  models.Status
	receipt *models.Receipt
	roster  map[string]models.Participant // by user_id
	ledger  map[models.ClaimKey]models.Claim
	settled bool
	cb      Callbacks
}

// Open loads the session's current state and starts applying change
// events. Subscription begins before the initial load so nothing
// published in between is missed; a duplicate observation of a loaded
// row lands on its key and changes nothing.
func Open(ctx context.Context, store storage.Store, feedSrc storage.Feed, sessionID, userID string, cb Callbacks) (*Client, error) {
	runCtx, cancel := context.WithCancel(context.Background())

	events, err := feedSrc.Subscribe(runCtx, sessionID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, err
	}
	receipt, err := store.GetReceipt(ctx, session.ReceiptID)
	if err != nil {
		cancel()
		return nil, err
	}
	participants, err := store.ListParticipants(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, err
	}
	claims, err := store.ListClaims(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, err
	}

	c := &Client{
		sessionID: sessionID,
		userID:    userID,
		claims:    service.NewClaimService(store),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    session.Status,
		receipt:   receipt,
		roster:    make(map[string]models.Participant, len(participants)),
		ledger:    make(map[models.ClaimKey]models.Claim, len(claims)),
		cb:        cb,
	}
	for _, p := range participants {
		c.roster[p.UserID] = p
	}
	for _, cl := range claims {
		c.ledger[cl.Key()] = cl
	}

	go c.run(events)

	// Surface the loaded state, including an immediate settlement when
	// joining a session that already finished.
	c.mu.Lock()
	c.notifyRosterLocked()
	c.notifyClaimsLocked()
	if c.cb.OnStatus != nil {
		c.cb.OnStatus(c.status)
	}
	c.maybeSettleLocked()
	c.mu.Unlock()

	return c, nil
}

// Close stops the apply loop and releases the subscription.
func (c *Client) Close() {
	c.cancel()
	<-c.done
}

// run applies change events until the subscription closes.
func (c *Client) run(events <-chan storage.ChangeEvent) {
	defer close(c.done)
	for ev := range events {
		c.apply(ev)
	}
}

func (c *Client) apply(ev storage.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Table {
	case storage.TableSessions:
		c.applySession(ev)
	case storage.TableParticipants:
		c.applyParticipant(ev)
	case storage.TableClaims:
		c.applyClaim(ev)
	default:
		slog.Debug("ignoring event for unknown table", "table", ev.Table)
		return
	}
	metrics.FeedEventsApplied.WithLabelValues(ev.Table, string(ev.Op)).Inc()
}

// applySession merges a session row. Status is monotonic, so a stale or
// duplicated event can never rewind an observed phase.
func (c *Client) applySession(ev storage.ChangeEvent) {
	var session models.Session
	if err := json.Unmarshal(ev.Row, &session); err != nil {
		slog.Warn("dropping malformed session event", "error", err)
		return
	}
	if statusRank(session.Status) <= statusRank(c.status) {
		return
	}

	c.status = session.Status
	if c.cb.OnStatus != nil {
		c.cb.OnStatus(c.status)
	}
	c.maybeSettleLocked()
}

func (c *Client) applyParticipant(ev storage.ChangeEvent) {
	var p models.Participant
	if err := json.Unmarshal(ev.Row, &p); err != nil {
		slog.Warn("dropping malformed participant event", "error", err)
		return
	}

	// Participants are never removed for the session lifetime; every
	// event is an upsert on user_id. A redelivered row lands on the
	// same key and still re-notifies harmlessly.
	c.roster[p.UserID] = p
	c.notifyRosterLocked()
}

func (c *Client) applyClaim(ev storage.ChangeEvent) {
	var claim models.Claim
	if err := json.Unmarshal(ev.Row, &claim); err != nil {
		slog.Warn("dropping malformed claim event", "error", err)
		return
	}

	if ev.Op == storage.OpDelete {
		delete(c.ledger, claim.Key())
	} else {
		c.ledger[claim.Key()] = claim
	}
	c.notifyClaimsLocked()
}

// maybeSettleLocked computes the viewer's settlement the first time the
// client sees the session finished. Settlements are derived locally and
// never transmitted; every device reduces the same converged snapshot.
func (c *Client) maybeSettleLocked() {
	if c.status != models.StatusFinished || c.settled {
		return
	}
	c.settled = true

	started := time.Now()
	settlement := calculator.Settle(c.userID, c.rosterLocked(), c.receipt, c.claimsLocked())
	metrics.SettlementDuration.Observe(time.Since(started).Seconds())
	metrics.SettlementsComputed.Inc()

	if c.cb.OnSettled != nil {
		c.cb.OnSettled(settlement)
	}
}

// Toggle flips the viewer's claim on an item, deciding from the local
// cache the way a device decides from what is on screen. A concurrent
// remote change can turn this into a benign double-toggle for this user
// only; the feed corrects the view either way.
func (c *Client) Toggle(ctx context.Context, itemIndex int) error {
	c.mu.Lock()
	_, mine := c.ledger[models.ClaimKey{ItemIndex: itemIndex, UserID: c.userID}]
	c.mu.Unlock()

	if mine {
		return c.claims.Unclaim(ctx, c.sessionID, itemIndex, c.userID)
	}
	return c.claims.Claim(ctx, c.sessionID, itemIndex, c.userID)
}

// Status returns the currently observed session phase.
func (c *Client) Status() models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Roster returns the converged participant list, join order first.
func (c *Client) Roster() []models.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rosterLocked()
}

// Claims returns the converged claim ledger.
func (c *Client) Claims() []models.Claim {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claimsLocked()
}

// Settlement computes the viewer's settlement from the current local
// snapshot, regardless of phase. The lifecycle-driven computation is
// OnSettled; this is for displaying a running total.
func (c *Client) Settlement() calculator.Settlement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return calculator.Settle(c.userID, c.rosterLocked(), c.receipt, c.claimsLocked())
}

func (c *Client) rosterLocked() []models.Participant {
	out := make([]models.Participant, 0, len(c.roster))
	for _, p := range c.roster {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt < out[j].JoinedAt
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (c *Client) claimsLocked() []models.Claim {
	out := make([]models.Claim, 0, len(c.ledger))
	for _, claim := range c.ledger {
		out = append(out, claim)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemIndex != out[j].ItemIndex {
			return out[i].ItemIndex < out[j].ItemIndex
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (c *Client) notifyRosterLocked() {
	if c.cb.OnRoster != nil {
		c.cb.OnRoster(c.rosterLocked())
	}
}

func (c *Client) notifyClaimsLocked() {
	if c.cb.OnClaims != nil {
		c.cb.OnClaims(c.claimsLocked())
	}
}

func statusRank(s models.Status) int {
	switch s {
	case models.StatusLobby:
		return 0
	case models.StatusActive:
		return 1
	case models.StatusFinished:
		return 2
	}
	return -1
}
