package calculator

import (
	"math"
	"testing"

	"github.com/tabshare/tabshare/internal/models"
)

func f64(v float64) *float64 { return &v }

func roster(userIDs ...string) []models.Participant {
	ps := make([]models.Participant, len(userIDs))
	for i, id := range userIDs {
		ps[i] = models.Participant{SessionID: "s1", UserID: id, DisplayName: id, JoinedAt: int64(i)}
	}
	return ps
}

func claim(item int, user string) models.Claim {
	return models.Claim{SessionID: "s1", ItemIndex: item, UserID: user}
}

// dinerReceipt is the shared fixture: subtotal 30, tax 3, tip 6.
func dinerReceipt() *models.Receipt {
	return &models.Receipt{
		ID:       "r1",
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
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestSettleAllUnclaimed(t *testing.T) {
	// Everything unclaimed, three participants: each owes an even third
	// of items, tax and tip.
	participants := roster("a", "b", "c")
	receipt := dinerReceipt()

	for _, user := range []string{"a", "b", "c"} {
		s := Settle(user, participants, receipt, nil)
		approx(t, user+" item subtotal", s.ItemSubtotal, 6.6667)
		approx(t, user+" unclaimed share", s.UnclaimedShare, 6.6667)
		approx(t, user+" tax", s.Tax, 0.67)
		approx(t, user+" tip", s.Tip, 1.33)
		approx(t, user+" total", s.Total, 8.67)
		if len(s.ClaimedItems) != 0 {
			t.Errorf("%s claimed items = %d, want 0", user, len(s.ClaimedItems))
		}
	}
}

func TestSettleMixedClaims(t *testing.T) {
	// Burger claimed solely by a, Fries shared by a and b, Soda unclaimed.
	participants := roster("a", "b", "c")
	receipt := dinerReceipt()
	claims := []models.Claim{
		claim(0, "a"),
		claim(1, "a"),
		claim(1, "b"),
	}

	t.Run("viewer a", func(t *testing.T) {
		s := Settle("a", participants, receipt, claims)
		// 12 + 5/2 + 3/3 = 15.50; proportion 15.50/30
		approx(t, "item subtotal", s.ItemSubtotal, 15.50)
		approx(t, "unclaimed share", s.UnclaimedShare, 1.00)
		approx(t, "tax", s.Tax, 1.55)
		approx(t, "tip", s.Tip, 3.10)
		approx(t, "total", s.Total, 20.15)

		if len(s.ClaimedItems) != 2 {
			t.Fatalf("claimed items = %d, want 2", len(s.ClaimedItems))
		}
		burger, fries := s.ClaimedItems[0], s.ClaimedItems[1]
		if burger.Name != "Burger" || burger.ClaimantCount != 1 {
			t.Errorf("row 0 = %+v, want solo Burger", burger)
		}
		approx(t, "burger share", burger.Share, 12.00)
		if fries.Name != "Fries" || fries.ClaimantCount != 2 {
			t.Errorf("row 1 = %+v, want shared Fries", fries)
		}
		approx(t, "fries share", fries.Share, 2.50)
	})

	t.Run("viewer b", func(t *testing.T) {
		s := Settle("b", participants, receipt, claims)
		// 5/2 + 3/3 = 3.50
		approx(t, "item subtotal", s.ItemSubtotal, 3.50)
		approx(t, "total", s.Total, 3.50+3.50/30.0*9.0)
	})

	t.Run("viewer c gets only the unclaimed share", func(t *testing.T) {
		s := Settle("c", participants, receipt, claims)
		approx(t, "item subtotal", s.ItemSubtotal, 1.00)
		if len(s.ClaimedItems) != 0 {
			t.Errorf("claimed items = %d, want 0", len(s.ClaimedItems))
		}
	})
}

func TestSettleFairness(t *testing.T) {
	// An item claimed by k participants contributes lineTotal/k to each
	// claimant and 0 to non-claimants.
	participants := roster("a", "b", "c", "d")
	receipt := &models.Receipt{
		Subtotal: f64(9.0),
		Items:    []models.LineItem{{Name: "Pitcher", Quantity: 1, LineTotal: f64(9.0)}},
	}
	claims := []models.Claim{claim(0, "a"), claim(0, "b"), claim(0, "c")}

	for _, user := range []string{"a", "b", "c"} {
		s := Settle(user, participants, receipt, claims)
		approx(t, user+" share", s.ItemSubtotal, 3.0)
	}
	s := Settle("d", participants, receipt, claims)
	approx(t, "non-claimant share", s.ItemSubtotal, 0)
	approx(t, "non-claimant total", s.Total, 0)
}

func TestSettleConservation(t *testing.T) {
	// When the receipt subtotal equals the item sum, the sum over all
	// participants equals subtotal + tax + tip, however the claims fall.
	participants := roster("a", "b", "c")
	receipt := &models.Receipt{
		Subtotal: f64(20.0),
		Tax:      f64(3.0),
		Tip:      f64(6.0),
		Total:    f64(29.0),
		Items: []models.LineItem{
			{Name: "Burger", Quantity: 1, LineTotal: f64(12.0)},
			{Name: "Fries", Quantity: 1, LineTotal: f64(5.0)},
			{Name: "Soda", Quantity: 1, LineTotal: f64(3.0)},
		},
	}

	cases := []struct {
		name   string
		claims []models.Claim
	}{
		{"all unclaimed", nil},
		{"all claimed once", []models.Claim{claim(0, "a"), claim(1, "b"), claim(2, "c")}},
		{"mixed sharing", []models.Claim{claim(0, "a"), claim(1, "a"), claim(1, "b")}},
		{"everything shared by everyone", []models.Claim{
			claim(0, "a"), claim(0, "b"), claim(0, "c"),
			claim(1, "a"), claim(1, "b"), claim(1, "c"),
			claim(2, "a"), claim(2, "b"), claim(2, "c"),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sum float64
			for _, s := range SettleAll(participants, receipt, tc.claims) {
				sum += s.Total
			}
			approx(t, "conserved total", sum, 29.0)
		})
	}
}

func TestSettleDuplicateClaimRows(t *testing.T) {
	// At-least-once delivery can hand the calculator duplicate claim
	// facts; distinct-claimant counting must absorb them.
	participants := roster("a", "b")
	receipt := dinerReceipt()
	claims := []models.Claim{claim(0, "a"), claim(0, "a"), claim(0, "a")}

	s := Settle("a", participants, receipt, claims)
	if len(s.ClaimedItems) != 1 {
		t.Fatalf("claimed items = %d, want 1", len(s.ClaimedItems))
	}
	if s.ClaimedItems[0].ClaimantCount != 1 {
		t.Errorf("claimant count = %d, want 1", s.ClaimedItems[0].ClaimantCount)
	}
	approx(t, "share", s.ClaimedItems[0].Share, 12.0)
}

func TestSettleFallbacks(t *testing.T) {
	t.Run("missing subtotal falls back to 1/N proportion", func(t *testing.T) {
		participants := roster("a", "b")
		receipt := &models.Receipt{
			Tax: f64(4.0),
			Items: []models.LineItem{
				{Name: "Thing", Quantity: 1, LineTotal: f64(10.0)},
			},
		}

		s := Settle("a", participants, receipt, nil)
		approx(t, "item subtotal", s.ItemSubtotal, 5.0)
		approx(t, "tax", s.Tax, 2.0)
	})

	t.Run("no participants and no subtotal", func(t *testing.T) {
		receipt := &models.Receipt{
			Tax:   f64(1.0),
			Items: []models.LineItem{{Name: "Thing", Quantity: 1, LineTotal: f64(10.0)}},
		}

		// Degenerate but must not divide by zero: full item, full tax.
		s := Settle("a", nil, receipt, nil)
		approx(t, "item subtotal", s.ItemSubtotal, 10.0)
		approx(t, "tax", s.Tax, 1.0)
	})

	t.Run("nil line totals count as zero", func(t *testing.T) {
		participants := roster("a")
		receipt := &models.Receipt{
			Subtotal: f64(5.0),
			Items: []models.LineItem{
				{Name: "Mystery", Quantity: 1},
				{Name: "Tea", Quantity: 1, LineTotal: f64(5.0)},
			},
		}

		s := Settle("a", participants, receipt, nil)
		approx(t, "item subtotal", s.ItemSubtotal, 5.0)
	})
}
