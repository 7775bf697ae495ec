package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// LoadMappings returns the customer's mapping memory, creating an empty
// persisted record on first access.
func (s *SQLiteStorage) LoadMappings(ctx context.Context, customerID string) (model.MappingMemory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Persistence("begin load mappings", err)
	}
	defer func() { _ = tx.Rollback() }()

	memory, err := loadMappingsTx(ctx, tx, customerID)
	if err != nil {
		return nil, common.Persistence("load mappings", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Persistence("commit load mappings", err)
	}

	return memory, nil
}

// SaveMapping sets one key of the customer's memory. The whole record is
// read, modified and written back inside a single transaction.
func (s *SQLiteStorage) SaveMapping(ctx context.Context, customerID, invoiceItem string, resolved *string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return err
	}
	if err := validateMapping(invoiceItem, resolved); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Persistence("begin save mapping", err)
	}
	defer func() { _ = tx.Rollback() }()

	memory, err := loadMappingsTx(ctx, tx, customerID)
	if err != nil {
		return common.Persistence("load mappings for update", err)
	}

	memory[invoiceItem] = model.CloneString(resolved)

	data, err := json.Marshal(memory)
	if err != nil {
		return common.Persistence("encode mappings", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE mapping_memories SET mappings = ?, updated_at = ? WHERE customer_id = ?`,
		string(data), time.Now().UTC(), customerID)
	if err != nil {
		return common.Persistence("write mappings", err)
	}

	if err := tx.Commit(); err != nil {
		return common.Persistence("commit save mapping", err)
	}

	return nil
}

func loadMappingsTx(ctx context.Context, tx *sql.Tx, customerID string) (model.MappingMemory, error) {
	if err := ensureCustomerTx(ctx, tx, customerID); err != nil {
		return nil, err
	}

	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO mapping_memories (customer_id, mappings, updated_at)
		VALUES (?, '{}', ?)`, customerID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to materialize mapping memory: %w", err)
	}

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT mappings FROM mapping_memories WHERE customer_id = ?`, customerID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping memory: %w", err)
	}

	return decodeMappings(raw)
}

func decodeMappings(raw string) (model.MappingMemory, error) {
	memory := make(model.MappingMemory)
	if raw == "" {
		return memory, nil
	}
	if err := json.Unmarshal([]byte(raw), &memory); err != nil {
		return nil, fmt.Errorf("corrupt mapping memory: %w", err)
	}
	if memory == nil {
		memory = make(model.MappingMemory)
	}
	return memory, nil
}
