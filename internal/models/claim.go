package models

// Claim records that a user claims one line item in a session.
// Identity is the composite (SessionID, ItemIndex, UserID). Several
// users may claim the same item; that is the sharing semantic, not a
// conflict. Claims are created by upsert and removed by delete-by-key,
// so concurrent writers never need coordination.
type Claim struct {
	// ID is the row identifier (UUID format).
	ID string `json:"id"`

	// SessionID is the session this claim belongs to.
	SessionID string `json:"session_id"`

	// ItemIndex is the position of the claimed line item in the
	// session's receipt. Must be within bounds of Receipt.Items.
	ItemIndex int `json:"item_index"`

	// UserID is the claiming participant.
	UserID string `json:"user_id"`

	// ClaimedAt is the Unix timestamp when the claim was recorded.
	ClaimedAt int64 `json:"claimed_at"`
}

// ClaimKey is the natural composite key of a claim within a session,
// used for cache reconciliation.
type ClaimKey struct {
	ItemIndex int
	UserID    string
}

// Key returns the claim's composite key within its session.
func (c Claim) Key() ClaimKey {
	return ClaimKey{ItemIndex: c.ItemIndex, UserID: c.UserID}
}
