// Package identity issues and verifies device identity tokens.
//
// Callers are identified by an opaque user ID rather than an account:
// a device mints a token once, stores it locally, and presents it on
// every reconnect so the same device keeps the same user ID across
// sessions. Display names travel in the token so the roster can show
// them without a user table.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("identity token required")
)

// User is the verified identity carried by a token.
type User struct {
	ID          string
	DisplayName string
}

type tokenClaims struct {
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Manager mints and verifies device identity tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a Manager. secret should be a strong random
// string (e.g., 32 bytes); ttl is how long tokens remain valid.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Mint creates an identity for a new device and signs a token for it.
// The user ID is generated here; devices never choose their own.
func (m *Manager) Mint(displayName string) (User, string, error) {
	user := User{
		ID:          uuid.NewString(),
		DisplayName: displayName,
	}

	now := time.Now()
	claims := &tokenClaims{
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return User{}, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return user, token, nil
}

// Verify parses and validates a token, returning the identity it carries.
func (m *Manager) Verify(tokenString string) (User, error) {
	if tokenString == "" {
		return User{}, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return User{}, ErrInvalidToken
	}

	return User{ID: claims.Subject, DisplayName: claims.DisplayName}, nil
}
