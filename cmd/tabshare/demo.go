package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabshare/tabshare/internal/calculator"
	"github.com/tabshare/tabshare/internal/config"
	"github.com/tabshare/tabshare/internal/extract"
	"github.com/tabshare/tabshare/internal/feed"
	"github.com/tabshare/tabshare/internal/identity"
	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/realtime"
	"github.com/tabshare/tabshare/internal/service"
	"github.com/tabshare/tabshare/internal/storage/sqlite"
)

// sampleReceipt stands in for OCR output of an uploaded photo.
const sampleReceipt = `The Corner Diner
Ordered 08/30 19:45
Burger  $12.00
Fries  $5.00
Soda  $3.00
Soup  $7.00
Milkshake  $6.00
SUBTOTAL 33.00
TAX 3.30
TIP 6.60
TOTAL 42.90`

type sampleExtractor struct{}

func (sampleExtractor) Extract(context.Context, []byte) (string, error) {
	return sampleReceipt, nil
}

func newDemoCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted three-person session end to end",
		Long: `Run a full session against the configured store and feed: ingest a
sample receipt, host a session, join two guests through realtime
clients, claim items, finish, and print each participant's settlement.

Requires a reachable Redis (REDIS_ADDR).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cfg)
		},
	}
}

func runDemo(ctx context.Context, cfg *config.Config) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	redisClient, err := feed.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	fstore := feed.NewStore(store, redisClient)
	sub := feed.NewSubscriber(redisClient)

	// Each participant is a device with its own identity token.
	ids := identity.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	users := make([]identity.User, 0, 3)
	for _, name := range []string{"Hana", "Alice", "Bob"} {
		_, token, err := ids.Mint(name)
		if err != nil {
			return fmt.Errorf("failed to mint identity: %w", err)
		}
		user, err := ids.Verify(token)
		if err != nil {
			return fmt.Errorf("failed to verify identity: %w", err)
		}
		users = append(users, user)
	}
	host, alice, bob := users[0], users[1], users[2]

	pipeline := extract.NewPipeline(sampleExtractor{}, extract.LineParser{}, fstore)
	receipt, warnings, err := pipeline.Ingest(ctx, nil, host.ID)
	if err != nil {
		return fmt.Errorf("failed to ingest receipt: %w", err)
	}
	for _, w := range warnings {
		slog.Warn("receipt warning", "warning", w)
	}
	fmt.Printf("Ingested receipt %s with %d items\n", receipt.ID, len(receipt.Items))

	sessions := service.NewSessionService(fstore)
	session, err := sessions.CreateSession(ctx, receipt.ID, host.ID, host.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	fmt.Printf("Session %s open, join code %s\n", session.ID, session.JoinCode)

	// Guests find the session by its code, as they would after typing it.
	found, err := sessions.FindSessionByCode(ctx, strings.ToLower(session.JoinCode))
	if err != nil {
		return fmt.Errorf("failed to find session by code: %w", err)
	}

	roster := service.NewRosterService(fstore)
	for _, guest := range []identity.User{alice, bob} {
		if err := roster.Join(ctx, found.ID, guest.ID, guest.DisplayName); err != nil {
			return fmt.Errorf("failed to join: %w", err)
		}
	}

	settled := make(chan calculator.Settlement, len(users))
	clients := make(map[string]*realtime.Client, len(users))
	for _, u := range users {
		c, err := realtime.Open(ctx, fstore, sub, session.ID, u.ID, realtime.Callbacks{
			OnSettled: func(s calculator.Settlement) { settled <- s },
		})
		if err != nil {
			return fmt.Errorf("failed to open client for %s: %w", u.DisplayName, err)
		}
		defer c.Close()
		clients[u.ID] = c
	}

	if err := sessions.AdvanceSession(ctx, session.ID, host.ID, models.StatusActive); err != nil {
		return fmt.Errorf("failed to start claiming: %w", err)
	}

	// Hana takes the burger, Alice and Bob share the soup, Bob takes the
	// milkshake. Fries and soda stay unclaimed and split three ways.
	picks := []struct {
		user string
		item int
	}{
		{host.ID, 0},
		{alice.ID, 3},
		{bob.ID, 3},
		{bob.ID, 4},
	}
	for _, p := range picks {
		if err := clients[p.user].Toggle(ctx, p.item); err != nil {
			return fmt.Errorf("failed to claim item %d: %w", p.item, err)
		}
	}
	if err := waitFor(3*time.Second, func() bool {
		for _, c := range clients {
			if len(c.Claims()) != len(picks) {
				return false
			}
		}
		return true
	}); err != nil {
		return fmt.Errorf("clients did not converge on claims: %w", err)
	}

	if err := sessions.AdvanceSession(ctx, session.ID, host.ID, models.StatusFinished); err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	names := map[string]string{host.ID: host.DisplayName, alice.ID: alice.DisplayName, bob.ID: bob.DisplayName}
	for range users {
		select {
		case s := <-settled:
			printSettlement(names[s.UserID], s)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("timed out waiting for settlements")
		}
	}
	return nil
}

func waitFor(timeout time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
	return fmt.Errorf("condition not met within %s", timeout)
}

func printSettlement(name string, s calculator.Settlement) {
	fmt.Printf("\n%s owes %.2f\n", name, s.Total)
	for _, item := range s.ClaimedItems {
		fmt.Printf("  %-20s %6.2f (split %d ways)\n", item.Name, item.Share, item.ClaimantCount)
	}
	if s.UnclaimedShare > 0 {
		fmt.Printf("  %-20s %6.2f\n", "shared items", s.UnclaimedShare)
	}
	fmt.Printf("  %-20s %6.2f\n", "tax", s.Tax)
	fmt.Printf("  %-20s %6.2f\n", "tip", s.Tip)
}
