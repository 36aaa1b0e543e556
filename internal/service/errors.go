package service

import "errors"

var (
	// ErrCodeExhausted is returned when three consecutive join codes
	// collided with live sessions.
	ErrCodeExhausted = errors.New("failed to generate a unique join code")

	// ErrNotHost is returned when a non-host tries to advance the
	// session lifecycle.
	ErrNotHost = errors.New("only the host may change the session status")

	// ErrInvalidTransition is returned for any transition other than
	// lobby->active or active->finished.
	ErrInvalidTransition = errors.New("illegal session status transition")

	// ErrSessionFinished is returned when a claim mutation targets a
	// finished session.
	ErrSessionFinished = errors.New("session is finished")

	// ErrItemOutOfRange is returned when a claim references an item
	// index outside the session's receipt.
	ErrItemOutOfRange = errors.New("item index out of range")
)
