package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
	"github.com/tabshare/tabshare/internal/storage/sqlite"
)

func f64(v float64) *float64 { return &v }

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestReceipt(t *testing.T, store storage.Store) *models.Receipt {
	t.Helper()
	receipt := &models.Receipt{
		OwnerID:  "host",
		Subtotal: f64(30.0),
		Tax:      f64(3.0),
		Tip:      f64(6.0),
		Total:    f64(39.0),
		Items: []models.LineItem{
			{Name: "Burger", Quantity: 1, LineTotal: f64(12.0)},
			{Name: "Fries", Quantity: 1, LineTotal: f64(5.0)},
			{Name: "Soda", Quantity: 1, LineTotal: f64(3.0)},
		},
	}
	if err := store.CreateReceipt(context.Background(), receipt); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}
	return receipt
}

func TestNewJoinCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := newJoinCode()
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q, outside the alphabet", code, ch)
			}
		}
		for _, forbidden := range "O01I" {
			if strings.ContainsRune(code, forbidden) {
				t.Fatalf("code %q contains ambiguous character %q", code, forbidden)
			}
		}
	}
}

func TestCreateSession(t *testing.T) {
	store := newTestStore(t)
	svc := NewSessionService(store)
	ctx := context.Background()

	t.Run("enrolls the host as first participant", func(t *testing.T) {
		receipt := newTestReceipt(t, store)

		session, err := svc.CreateSession(ctx, receipt.ID, "host", "Hannah")
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if session.Status != models.StatusLobby {
			t.Errorf("status = %q, want lobby", session.Status)
		}
		if len(session.JoinCode) != codeLength {
			t.Errorf("join code = %q, want %d chars", session.JoinCode, codeLength)
		}

		roster, err := store.ListParticipants(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(roster) != 1 || roster[0].UserID != "host" || roster[0].DisplayName != "Hannah" {
			t.Errorf("roster = %+v, want just the host", roster)
		}
	})

	t.Run("retries collided codes and succeeds on the third", func(t *testing.T) {
		receipt := newTestReceipt(t, store)

		// Occupy two codes, then hand the service a code sequence that
		// collides twice before a fresh one.
		for _, code := range []string{"AAAAAA", "BBBBBB"} {
			taken := &models.Session{ReceiptID: receipt.ID, HostID: "other", JoinCode: code}
			if err := store.CreateSession(ctx, taken); err != nil {
				t.Fatalf("failed to occupy code %s: %v", code, err)
			}
		}

		codes := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
		svc.newCode = func() string {
			code := codes[0]
			codes = codes[1:]
			return code
		}
		defer func() { svc.newCode = newJoinCode }()

		session, err := svc.CreateSession(ctx, receipt.ID, "host", "Hannah")
		if err != nil {
			t.Fatalf("CreateSession failed after retries: %v", err)
		}
		if session.JoinCode != "CCCCCC" {
			t.Errorf("join code = %q, want CCCCCC", session.JoinCode)
		}
	})

	t.Run("gives up after three collisions", func(t *testing.T) {
		receipt := newTestReceipt(t, store)

		taken := &models.Session{ReceiptID: receipt.ID, HostID: "other", JoinCode: "DDDDDD"}
		if err := store.CreateSession(ctx, taken); err != nil {
			t.Fatalf("failed to occupy code: %v", err)
		}

		svc.newCode = func() string { return "DDDDDD" }
		defer func() { svc.newCode = newJoinCode }()

		_, err := svc.CreateSession(ctx, receipt.ID, "host", "Hannah")
		if !errors.Is(err, ErrCodeExhausted) {
			t.Errorf("expected ErrCodeExhausted, got %v", err)
		}
	})
}

func TestFindSessionByCode(t *testing.T) {
	store := newTestStore(t)
	svc := NewSessionService(store)
	ctx := context.Background()

	receipt := newTestReceipt(t, store)
	session, err := svc.CreateSession(ctx, receipt.ID, "host", "Hannah")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	t.Run("is case-insensitive", func(t *testing.T) {
		found, err := svc.FindSessionByCode(ctx, strings.ToLower(session.JoinCode))
		if err != nil {
			t.Fatalf("FindSessionByCode failed: %v", err)
		}
		if found.ID != session.ID {
			t.Errorf("found %s, want %s", found.ID, session.ID)
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		found, err := svc.FindSessionByCode(ctx, "  "+session.JoinCode+" ")
		if err != nil {
			t.Fatalf("FindSessionByCode failed: %v", err)
		}
		if found.ID != session.ID {
			t.Errorf("found %s, want %s", found.ID, session.ID)
		}
	})

	t.Run("misses unknown codes", func(t *testing.T) {
		_, err := svc.FindSessionByCode(ctx, "ZZZZZZ")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("does not match finished sessions", func(t *testing.T) {
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusActive); err != nil {
			t.Fatalf("advance to active failed: %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusFinished); err != nil {
			t.Fatalf("advance to finished failed: %v", err)
		}

		_, err := svc.FindSessionByCode(ctx, session.JoinCode)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for finished session, got %v", err)
		}
	})
}

func TestAdvanceSession(t *testing.T) {
	store := newTestStore(t)
	svc := NewSessionService(store)
	ctx := context.Background()

	newSession := func(t *testing.T) *models.Session {
		t.Helper()
		receipt := newTestReceipt(t, store)
		session, err := svc.CreateSession(ctx, receipt.ID, "host", "Hannah")
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		return session
	}

	t.Run("only the host may advance", func(t *testing.T) {
		session := newSession(t)
		err := svc.AdvanceSession(ctx, session.ID, "guest", models.StatusActive)
		if !errors.Is(err, ErrNotHost) {
			t.Errorf("expected ErrNotHost, got %v", err)
		}
	})

	t.Run("walks lobby to active to finished", func(t *testing.T) {
		session := newSession(t)
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusActive); err != nil {
			t.Fatalf("lobby->active failed: %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusFinished); err != nil {
			t.Fatalf("active->finished failed: %v", err)
		}
		got, err := svc.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Status != models.StatusFinished {
			t.Errorf("status = %q, want finished", got.Status)
		}
	})

	t.Run("rejects skipping and reversing", func(t *testing.T) {
		session := newSession(t)

		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusFinished); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("lobby->finished: expected ErrInvalidTransition, got %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusActive); err != nil {
			t.Fatalf("lobby->active failed: %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusLobby); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("active->lobby: expected ErrInvalidTransition, got %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusFinished); err != nil {
			t.Fatalf("active->finished failed: %v", err)
		}
		if err := svc.AdvanceSession(ctx, session.ID, "host", models.StatusActive); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("finished->active: expected ErrInvalidTransition, got %v", err)
		}
	})
}
