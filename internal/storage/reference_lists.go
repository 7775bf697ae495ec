package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// ReplaceReferenceList overwrites the customer's list. The mapping memory is
// never read or written here.
func (s *SQLiteStorage) ReplaceReferenceList(ctx context.Context, customerID string, items []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return err
	}
	if err := validateListItems(items); err != nil {
		return err
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidList, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Persistence("begin replace list", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureCustomerTx(ctx, tx, customerID); err != nil {
		return common.Persistence("replace list", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reference_lists (customer_id, items, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			items = excluded.items,
			updated_at = excluded.updated_at`,
		customerID, string(data), time.Now().UTC())
	if err != nil {
		return common.Persistence("write list", err)
	}

	if err := tx.Commit(); err != nil {
		return common.Persistence("commit replace list", err)
	}

	return nil
}

// LoadReferenceList returns the stored list, or an unconfigured empty list
// when nothing was ever uploaded.
func (s *SQLiteStorage) LoadReferenceList(ctx context.Context, customerID string) (model.ReferenceList, error) {
	list := model.ReferenceList{CustomerID: customerID}

	if err := validateContext(ctx); err != nil {
		return list, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return list, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT items, updated_at FROM reference_lists WHERE customer_id = ?`,
		customerID).Scan(&raw, &list.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return list, nil
	}
	if err != nil {
		return list, common.Persistence("read list", err)
	}

	items := []string{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return list, common.Persistence("decode list", err)
	}
	if items == nil {
		items = []string{}
	}
	list.Items = items

	return list, nil
}
