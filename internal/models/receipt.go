package models

// LineItem is a single line on a receipt.
// Items can be shared among multiple participants via claims.
type LineItem struct {
	// Name is the item description as extracted (e.g., "Burger").
	Name string `json:"name"`

	// Quantity defaults to 1 when the extractor could not read it.
	Quantity int `json:"quantity"`

	// UnitPrice is the per-unit price, nil if not present on the receipt.
	UnitPrice *float64 `json:"unit_price"`

	// LineTotal is the total for this line, nil if not present.
	// Settlement math treats a nil LineTotal as 0.
	LineTotal *float64 `json:"line_total"`
}

// Receipt represents a scanned and validated receipt.
//
// Items are addressed by position index for the lifetime of any session
// referencing this receipt, so the slice must never be reordered or
// mutated once a session has been created against it.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	// OwnerID is the user who scanned and saved the receipt.
	OwnerID string `json:"owner_id"`

	// MerchantName, Address and DateTime are extracted as-is and may be
	// empty when the extractor could not find them.
	MerchantName string `json:"merchant_name"`
	Address      string `json:"address"`
	DateTime     string `json:"date_time"`

	// Subtotal, Tax, Tip and Total are nil when absent from the receipt.
	Subtotal *float64 `json:"subtotal"`
	Tax      *float64 `json:"tax"`
	Tip      *float64 `json:"tip"`
	Total    *float64 `json:"total"`

	// Items is the ordered list of line items. Order is the only
	// addressing mechanism for claims.
	Items []LineItem `json:"items"`

	// CreatedAt is the Unix timestamp when the receipt was saved.
	CreatedAt int64 `json:"created_at"`
}

// Amount returns the line total, or 0 when the extractor left it empty.
func (li LineItem) Amount() float64 {
	if li.LineTotal == nil {
		return 0
	}
	return *li.LineTotal
}

// MoneyOrZero dereferences an optional money field.
func MoneyOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
