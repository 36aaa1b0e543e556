package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tabshare/tabshare/internal/models"
)

// priceLine matches "name ... price" lines such as "Soup 7.00" or
// "Burger  $12.00".
var priceLine = regexp.MustCompile(`(.+?)[\s$]+(\d+\.\d{2})`)

// totalLabels map metadata line labels to receipt fields. Order
// matters: "subtotal" must be tested before "total".
var totalLabels = []string{"SUBTOTAL", "TAX", "TIP", "TOTAL"}

// noiseWords mark lines that carry a price but are neither items nor
// totals.
var noiseWords = []string{"SERVICE CHARGE", "CHECK #", "GUEST COUNT"}

// LineParser is a regex-based ReceiptParser for plain OCR text. It
// recovers item lines and the subtotal/tax/tip/total metadata lines.
// It never errors: unreadable text just yields fewer fields, each with
// a warning.
type LineParser struct{}

func (LineParser) Parse(_ context.Context, text string) (*models.Receipt, []string, error) {
	receipt := &models.Receipt{}
	var warnings []string

	for _, line := range strings.Split(text, "\n") {
		m := priceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if isNoise(name) || isDate(name) {
			continue
		}
		if label := totalLabel(name); label != "" {
			setTotal(receipt, label, price)
			continue
		}
		receipt.Items = append(receipt.Items, models.LineItem{
			Name:      name,
			Quantity:  1,
			LineTotal: &price,
		})
	}

	if len(receipt.Items) == 0 {
		warnings = append(warnings, "no items recognized on the receipt")
	}
	if receipt.Subtotal == nil {
		warnings = append(warnings, "no subtotal recognized; tax and tip will be split evenly")
	}
	return receipt, warnings, nil
}

func totalLabel(name string) string {
	upper := strings.ToUpper(name)
	for _, label := range totalLabels {
		if strings.Contains(upper, label) {
			return label
		}
	}
	return ""
}

func setTotal(r *models.Receipt, label string, price float64) {
	v := price
	switch label {
	case "SUBTOTAL":
		r.Subtotal = &v
	case "TAX":
		r.Tax = &v
	case "TIP":
		r.Tip = &v
	case "TOTAL":
		r.Total = &v
	}
}

func isNoise(name string) bool {
	upper := strings.ToUpper(name)
	for _, w := range noiseWords {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

// isDate filters timestamps like "Ordered 12/31 7:45" whose trailing
// digits would otherwise read as a price.
func isDate(name string) bool {
	return strings.Contains(name, "/") && strings.Contains(name, ":")
}
