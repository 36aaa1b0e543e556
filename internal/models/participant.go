package models

// Participant records that a user has joined a session.
// Identity is the composite (SessionID, UserID); joining twice is an
// upsert, not an error. Participants are never removed for the lifetime
// of the session.
type Participant struct {
	// ID is the row identifier (UUID format).
	ID string `json:"id"`

	// SessionID is the session this membership belongs to.
	SessionID string `json:"session_id"`

	// UserID is the stable identifier supplied by the identity provider.
	UserID string `json:"user_id"`

	// DisplayName is the name shown to other participants. Re-joining
	// with a different name is a last-write update.
	DisplayName string `json:"display_name"`

	// JoinedAt is the Unix timestamp of the first join. Rosters are
	// ordered by JoinedAt ascending; the ordering only affects display,
	// the count drives settlement math.
	JoinedAt int64 `json:"joined_at"`
}
