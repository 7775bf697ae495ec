// Package testutil provides test fixtures shared by the engine, server and
// command tests: isolated SQLite databases seeded with customer state and a
// scripted completion client.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// CustomerFixture seeds one customer. A nil Items leaves the reference list
// unconfigured; an empty non-nil slice uploads an empty list.
type CustomerFixture struct {
	Mappings model.MappingMemory
	ID       string
	Items    []string
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Customers      []CustomerFixture
	SkipMigrations bool
}

// SetupTestDB creates a migrated database in a temp dir seeded with customers.
// It automatically handles cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.CustomerFixture{
//		ID:    "trattoria",
//		Items: []string{"Margherita", "Tiramisu"},
//	})
func SetupTestDB(t *testing.T, customers ...CustomerFixture) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Customers: customers})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "mapper.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, c := range opts.Customers {
		if c.Items != nil {
			if err := store.ReplaceReferenceList(ctx, c.ID, c.Items); err != nil {
				t.Fatalf("failed to seed reference list for %q: %v", c.ID, err)
			}
		}
		for _, key := range c.Mappings.Keys() {
			if err := store.SaveMapping(ctx, c.ID, key, c.Mappings[key]); err != nil {
				t.Fatalf("failed to seed mapping %q for %q: %v", key, c.ID, err)
			}
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustMappings returns the persisted memory of customerID or fails the test.
func (db *TestDB) MustMappings(customerID string) model.MappingMemory {
	db.t.Helper()
	memory, err := db.Storage.LoadMappings(context.Background(), customerID)
	if err != nil {
		db.t.Fatalf("failed to load mappings for %q: %v", customerID, err)
	}
	return memory
}
