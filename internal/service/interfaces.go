// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

// MappingStore persists each customer's mapping memory as a single record.
type MappingStore interface {
	// LoadMappings returns the persisted memory, materializing an empty
	// record for customers seen for the first time.
	LoadMappings(ctx context.Context, customerID string) (model.MappingMemory, error)
	// SaveMapping reads the whole memory, sets one key and writes it back.
	// A nil resolved value records a confirmed "no match".
	SaveMapping(ctx context.Context, customerID, invoiceItem string, resolved *string) error
}

// ReferenceListRepository persists each customer's reference list.
type ReferenceListRepository interface {
	// ReplaceReferenceList overwrites the list wholesale. It never touches
	// the mapping memory.
	ReplaceReferenceList(ctx context.Context, customerID string, items []string) error
	// LoadReferenceList returns an unconfigured empty list if nothing was uploaded.
	LoadReferenceList(ctx context.Context, customerID string) (model.ReferenceList, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	MappingStore
	ReferenceListRepository

	// ListCustomers returns every customer with a list or a memory record.
	ListCustomers(ctx context.Context) ([]string, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
