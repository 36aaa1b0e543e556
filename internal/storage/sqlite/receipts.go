package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/models"
	"github.com/tabshare/tabshare/internal/storage"
)

// CreateReceipt persists a new receipt. Items are stored as a single
// ordered JSON blob; order is load-bearing since claims address items
// by position.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.CreatedAt == 0 {
		receipt.CreatedAt = time.Now().Unix()
	}

	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("failed to encode receipt items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO receipts (id, user_id, merchant_name, address, date_time, subtotal, tax, tip, total, items, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.OwnerID,
		nullStr(receipt.MerchantName), nullStr(receipt.Address), nullStr(receipt.DateTime),
		receipt.Subtotal, receipt.Tax, receipt.Tip, receipt.Total,
		string(items), receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", mapConstraintErr(err))
	}

	return nil
}

// GetReceipt retrieves a receipt by ID, including its ordered items.
func (s *SQLiteStore) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	var merchant, address, dateTime sql.NullString
	var items string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, merchant_name, address, date_time, subtotal, tax, tip, total, items, created_at
		 FROM receipts WHERE id = ?`,
		receiptID,
	).Scan(
		&receipt.ID, &receipt.OwnerID, &merchant, &address, &dateTime,
		&receipt.Subtotal, &receipt.Tax, &receipt.Tip, &receipt.Total,
		&items, &receipt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	receipt.MerchantName = merchant.String
	receipt.Address = address.String
	receipt.DateTime = dateTime.String

	if err := json.Unmarshal([]byte(items), &receipt.Items); err != nil {
		return nil, fmt.Errorf("failed to decode receipt items: %w", err)
	}

	return receipt, nil
}

// nullStr maps "" to NULL so optional text columns stay NULL-able.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
