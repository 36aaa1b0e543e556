package models

// Status is the lifecycle phase of a session.
// Transitions are monotonic: lobby -> active -> finished, no skipping,
// no reverse.
type Status string

const (
	// StatusLobby is the initial phase: participants join, no claims yet.
	StatusLobby Status = "lobby"

	// StatusActive is the claiming phase: any participant may claim or
	// unclaim items.
	StatusActive Status = "active"

	// StatusFinished is terminal: claims are frozen and every client
	// computes its settlement.
	StatusFinished Status = "finished"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLobby, StatusActive, StatusFinished:
		return true
	}
	return false
}

// CanAdvanceTo reports whether target is the single legal next phase.
func (s Status) CanAdvanceTo(target Status) bool {
	switch s {
	case StatusLobby:
		return target == StatusActive
	case StatusActive:
		return target == StatusFinished
	}
	return false
}

// Session is a bounded, code-addressable splitting activity over one
// receipt. The host owns lifecycle transitions; any participant may
// read and, while active, write claims.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// ReceiptID references the receipt being split. Exactly one receipt
	// per session.
	ReceiptID string `json:"receipt_id"`

	// HostID is the user who created the session.
	HostID string `json:"host_id"`

	// JoinCode is the 6-character human-enterable code, drawn from an
	// alphabet that omits O, 0, 1 and I. Unique among non-finished
	// sessions.
	JoinCode string `json:"join_code"`

	// Status is the current lifecycle phase.
	Status Status `json:"status"`

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64 `json:"created_at"`
}
