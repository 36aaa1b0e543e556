package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage/sqlite"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(context.Context, []byte) (string, error) {
	return s.text, s.err
}

type failingParser struct{}

func (failingParser) Parse(context.Context, string) (*models.Receipt, []string, error) {
	return nil, nil, errors.New("model returned no output")
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "extract.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLineParser(t *testing.T) {
	text := strings.Join([]string{
		"The Diner",
		"Ordered 12/31 7:45",
		"Burger  $12.00",
		"Soup 7.00",
		"SUBTOTAL 19.00",
		"TAX 1.90",
		"TOTAL 20.90",
	}, "\n")

	receipt, warnings, err := LineParser{}.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(receipt.Items) != 2 {
		t.Fatalf("parsed %d items, want 2: %+v", len(receipt.Items), receipt.Items)
	}
	if receipt.Items[0].Name != "Burger" || receipt.Items[0].Amount() != 12.00 {
		t.Errorf("item 0 = %+v, want Burger 12.00", receipt.Items[0])
	}
	if receipt.Items[1].Name != "Soup" || receipt.Items[1].Amount() != 7.00 {
		t.Errorf("item 1 = %+v, want Soup 7.00", receipt.Items[1])
	}
	if models.MoneyOrZero(receipt.Subtotal) != 19.00 {
		t.Errorf("subtotal = %v, want 19.00", receipt.Subtotal)
	}
	if models.MoneyOrZero(receipt.Tax) != 1.90 {
		t.Errorf("tax = %v, want 1.90", receipt.Tax)
	}
	if models.MoneyOrZero(receipt.Total) != 20.90 {
		t.Errorf("total = %v, want 20.90", receipt.Total)
	}
}

func TestLineParserNothingRecognized(t *testing.T) {
	receipt, warnings, err := LineParser{}.Parse(context.Background(), "smudged thermal paper")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(receipt.Items) != 0 {
		t.Errorf("items = %+v, want none", receipt.Items)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want no-items and no-subtotal warnings", warnings)
	}
}

func TestIngestPersistsReceipt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := NewPipeline(stubExtractor{text: "Burger 12.00\nSoup 7.00\nSUBTOTAL 19.00"}, LineParser{}, store)
	receipt, warnings, err := p.Ingest(ctx, []byte("image"), "u1")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if receipt.OwnerID != "u1" {
		t.Errorf("owner = %q, want u1", receipt.OwnerID)
	}

	stored, err := store.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("stored %d items, want 2", len(stored.Items))
	}
	for i, item := range stored.Items {
		if item.Quantity != 1 {
			t.Errorf("item %d quantity = %d, want defaulted to 1", i, item.Quantity)
		}
	}
}

func TestIngestParserFailureFallsBackToBlank(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := NewPipeline(stubExtractor{text: "anything"}, failingParser{}, store)
	receipt, warnings, err := p.Ingest(ctx, []byte("image"), "u1")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(receipt.Items) != 0 {
		t.Errorf("blank receipt has items: %+v", receipt.Items)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want a single fallback warning", warnings)
	}
	if _, err := store.GetReceipt(ctx, receipt.ID); err != nil {
		t.Errorf("blank receipt not persisted: %v", err)
	}
}

func TestIngestExtractorFailureIsFatal(t *testing.T) {
	store := newTestStore(t)

	p := NewPipeline(stubExtractor{err: errors.New("camera upload corrupt")}, LineParser{}, store)
	if _, _, err := p.Ingest(context.Background(), []byte("image"), "u1"); err == nil {
		t.Fatal("Ingest succeeded despite extractor failure")
	}
}
