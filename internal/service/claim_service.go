package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabshare/tabshare/internal/metrics"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// ClaimService is the concurrent-edit surface of a session: the mapping
// of (item, participant) claim facts. All mutations are idempotent
// upserts or deletes by composite key, so two participants claiming the
// same item concurrently both succeed and both claims are recorded —
// that is the shared-item semantic, not a conflict.
type ClaimService struct {
	store storage.Store
}

// NewClaimService creates a ClaimService with the given storage backend.
func NewClaimService(store storage.Store) *ClaimService {
	return &ClaimService{store: store}
}

// gate rejects mutations on finished sessions and, for claims, item
// indexes outside the receipt. The status read and the mutation are not
// one atomic step across processes; a finish racing a claim can slip one
// last claim in, which the settlement's converged snapshot still
// accounts for.
func (c *ClaimService) gate(ctx context.Context, sessionID string, itemIndex int, checkBounds bool) error {
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.StatusFinished {
		return ErrSessionFinished
	}

	if itemIndex < 0 {
		return fmt.Errorf("index %d: %w", itemIndex, ErrItemOutOfRange)
	}
	if checkBounds {
		receipt, err := c.store.GetReceipt(ctx, session.ReceiptID)
		if err != nil {
			return err
		}
		if itemIndex >= len(receipt.Items) {
			return fmt.Errorf("index %d of %d items: %w", itemIndex, len(receipt.Items), ErrItemOutOfRange)
		}
	}
	return nil
}

// Claim records that userID claims the item at itemIndex. Claiming an
// already-claimed item is a no-op success.
func (c *ClaimService) Claim(ctx context.Context, sessionID string, itemIndex int, userID string) error {
	if err := c.gate(ctx, sessionID, itemIndex, true); err != nil {
		return err
	}

	claim := &models.Claim{SessionID: sessionID, ItemIndex: itemIndex, UserID: userID}
	if err := c.store.UpsertClaim(ctx, claim); err != nil {
		slog.Error("Claim failed", "session_id", sessionID, "item_index", itemIndex, "error", err)
		return err
	}
	metrics.ClaimMutations.WithLabelValues("claim").Inc()
	return nil
}

// Unclaim removes userID's claim on the item if present; removing an
// absent claim is a no-op success.
func (c *ClaimService) Unclaim(ctx context.Context, sessionID string, itemIndex int, userID string) error {
	if err := c.gate(ctx, sessionID, itemIndex, false); err != nil {
		return err
	}

	if err := c.store.DeleteClaim(ctx, sessionID, itemIndex, userID); err != nil {
		slog.Error("Unclaim failed", "session_id", sessionID, "item_index", itemIndex, "error", err)
		return err
	}
	metrics.ClaimMutations.WithLabelValues("unclaim").Inc()
	return nil
}

// ListClaims returns all claims for a session.
func (c *ClaimService) ListClaims(ctx context.Context, sessionID string) ([]models.Claim, error) {
	return c.store.ListClaims(ctx, sessionID)
}

// Toggle flips userID's claim on the item: unclaim if held, claim
// otherwise. The check and the act are separate requests, so a remote
// change can slip between them; the worst case is a benign double-toggle
// visible only on this user's device, corrected by the next refresh. It
// never touches other participants' claims.
func (c *ClaimService) Toggle(ctx context.Context, sessionID string, itemIndex int, userID string) (claimed bool, err error) {
	claims, err := c.store.ListClaims(ctx, sessionID)
	if err != nil {
		return false, err
	}

	mine := false
	for _, claim := range claims {
		if claim.ItemIndex == itemIndex && claim.UserID == userID {
			mine = true
			break
		}
	}

	if mine {
		return false, c.Unclaim(ctx, sessionID, itemIndex, userID)
	}
	return true, c.Claim(ctx, sessionID, itemIndex, userID)
}
