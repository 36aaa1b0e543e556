package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tabshare/tabshare/internal/calculator"
	"github.com/tabshare/tabshare/internal/config"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage/sqlite"
)

func newSettleCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "settle <session-id>",
		Short: "Recompute settlements for a finished session",
		Long: `Recompute every participant's settlement from the stored roster,
receipt and claim ledger of a finished session. Settlement is a pure
function of that state, so this always reproduces what the clients
showed when the session finished.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettle(cmd.Context(), cfg, args[0])
		},
	}
}

func runSettle(ctx context.Context, cfg *config.Config, sessionID string) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Status != models.StatusFinished {
		return fmt.Errorf("session %s is %s, settlements exist only for finished sessions", sessionID, session.Status)
	}

	receipt, err := store.GetReceipt(ctx, session.ReceiptID)
	if err != nil {
		return fmt.Errorf("failed to load receipt: %w", err)
	}
	participants, err := store.ListParticipants(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	claims, err := store.ListClaims(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load claims: %w", err)
	}

	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.UserID] = p.DisplayName
	}

	all := calculator.SettleAll(participants, receipt, claims)
	userIDs := make([]string, 0, len(all))
	for id := range all {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return names[userIDs[i]] < names[userIDs[j]] })

	fmt.Printf("Session %s (code %s), %d participants\n", session.ID, session.JoinCode, len(participants))
	for _, id := range userIDs {
		printSettlement(names[id], all[id])
	}
	return nil
}
