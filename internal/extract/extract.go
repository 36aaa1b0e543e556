// Package extract turns receipt images into persisted receipts.
//
// The OCR and structuring steps live behind interfaces: production
// deployments plug in whatever vision/LLM services they pay for, while
// this module owns the pipeline around them (defaulting, fallback,
// persistence).
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// TextExtractor recovers raw text from a receipt image.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// ReceiptParser structures raw receipt text into a Receipt. Warnings
// carry non-fatal extraction problems (unreadable totals, guessed
// quantities) for display to the uploader.
type ReceiptParser interface {
	Parse(ctx context.Context, text string) (*models.Receipt, []string, error)
}

// Pipeline runs extract -> parse -> persist for an uploaded image.
type Pipeline struct {
	extractor TextExtractor
	parser    ReceiptParser
	store     storage.Store
}

func NewPipeline(extractor TextExtractor, parser ReceiptParser, store storage.Store) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		parser:    parser,
		store:     store,
	}
}

// Ingest processes an uploaded receipt image for ownerID and persists
// the result. A parser failure does not fail the upload: the user gets
// a blank receipt with a warning and fills the items in by hand, which
// beats losing the session they were about to host. An extractor
// failure is fatal since there is nothing to fall back on.
func (p *Pipeline) Ingest(ctx context.Context, image []byte, ownerID string) (*models.Receipt, []string, error) {
	text, err := p.extractor.Extract(ctx, image)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract receipt text: %w", err)
	}

	receipt, warnings, err := p.parser.Parse(ctx, text)
	if err != nil {
		slog.Warn("receipt parse failed, saving blank receipt", "owner_id", ownerID, "error", err)
		receipt = &models.Receipt{}
		warnings = append(warnings, "could not read the receipt; add items manually")
	}

	receipt.OwnerID = ownerID
	defaultQuantities(receipt)

	if err := p.store.CreateReceipt(ctx, receipt); err != nil {
		return nil, nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	slog.Info("receipt ingested",
		"receipt_id", receipt.ID,
		"owner_id", ownerID,
		"items", len(receipt.Items),
		"warnings", len(warnings))
	return receipt, warnings, nil
}

// defaultQuantities sets quantity to 1 wherever the parser could not
// read one.
func defaultQuantities(r *models.Receipt) {
	for i := range r.Items {
		if r.Items[i].Quantity <= 0 {
			r.Items[i].Quantity = 1
		}
	}
}
