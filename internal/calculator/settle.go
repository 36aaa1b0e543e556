// Package calculator computes per-participant settlements for finished
// sessions. Settle is a pure function: every client runs it
// independently over its converged roster/ledger/receipt snapshot, and
// identical inputs must produce identical output on every device —
// settlements are never transmitted as ground truth.
package calculator

import (
	"github.com/tabshare/tabshare/internal/models"
)

// ClaimedItem is one row of a participant's settlement: an item they
// claimed, with their even share of its line total.
type ClaimedItem struct {
	Name          string
	LineTotal     float64
	Share         float64
	ClaimantCount int
}

// Settlement is what one participant owes for a finished session.
type Settlement struct {
	UserID string

	// ClaimedItems are the viewer's claimed items with per-claimant shares.
	ClaimedItems []ClaimedItem

	// UnclaimedShare is the viewer's even share of all unclaimed items.
	UnclaimedShare float64

	// ItemSubtotal = sum of claimed shares + UnclaimedShare.
	ItemSubtotal float64

	// Tax and Tip are apportioned proportionally to the viewer's share
	// of the receipt subtotal.
	Tax float64
	Tip float64

	// Total = ItemSubtotal + Tax + Tip.
	Total float64
}

// Settle computes what myUserID owes.
//
// Each unclaimed item is split evenly across all participants; each
// claimed item is split evenly across its distinct claimants. Tax and
// tip are apportioned by the viewer's proportion of the receipt
// subtotal; when the receipt has no subtotal the proportion falls back
// to 1/N, or 1 with an empty roster, so the math never divides by zero.
func Settle(myUserID string, participants []models.Participant, receipt *models.Receipt, claims []models.Claim) Settlement {
	// item index -> distinct claimant set
	claimants := make(map[int]map[string]bool)
	for _, c := range claims {
		if claimants[c.ItemIndex] == nil {
			claimants[c.ItemIndex] = make(map[string]bool)
		}
		claimants[c.ItemIndex][c.UserID] = true
	}

	headCount := len(participants)

	s := Settlement{UserID: myUserID}
	for index, item := range receipt.Items {
		lineTotal := item.Amount()
		set := claimants[index]

		switch {
		case len(set) == 0:
			share := lineTotal
			if headCount > 0 {
				share = lineTotal / float64(headCount)
			}
			s.UnclaimedShare += share
			s.ItemSubtotal += share
		case set[myUserID]:
			share := lineTotal / float64(len(set))
			s.ClaimedItems = append(s.ClaimedItems, ClaimedItem{
				Name:          item.Name,
				LineTotal:     lineTotal,
				Share:         share,
				ClaimantCount: len(set),
			})
			s.ItemSubtotal += share
		default:
			// Claimed by others only; nothing for the viewer.
		}
	}

	subtotal := models.MoneyOrZero(receipt.Subtotal)
	proportion := 1.0
	switch {
	case subtotal > 0:
		proportion = s.ItemSubtotal / subtotal
	case headCount > 0:
		proportion = 1 / float64(headCount)
	}

	s.Tax = models.MoneyOrZero(receipt.Tax) * proportion
	s.Tip = models.MoneyOrZero(receipt.Tip) * proportion
	s.Total = s.ItemSubtotal + s.Tax + s.Tip

	return s
}

// SettleAll computes every participant's settlement from the same
// snapshot. Used to check conservation and by the CLI's summary output;
// clients only ever need their own view.
func SettleAll(participants []models.Participant, receipt *models.Receipt, claims []models.Claim) map[string]Settlement {
	all := make(map[string]Settlement, len(participants))
	for _, p := range participants {
		all[p.UserID] = Settle(p.UserID, participants, receipt, claims)
	}
	return all
}
