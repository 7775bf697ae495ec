package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises behavior every Storage backend must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) service.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("load materializes empty memory", func(t *testing.T) {
		store := newStore(t)

		memory, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.NotNil(t, memory)
		assert.Empty(t, memory)

		customers, err := store.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, customers)
	})

	t.Run("save mapping reads modifies and writes", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("X")))
		require.NoError(t, store.SaveMapping(ctx, "c1", "B", nil))
		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("Y")))

		memory, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, memory, 2)
		require.NotNil(t, memory["A"])
		assert.Equal(t, "Y", *memory["A"])

		v, ok := memory.Lookup("B")
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("save mapping is idempotent", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("X")))
		first, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)

		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("X")))
		second, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("keys are exact strings", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SaveMapping(ctx, "c1", "Tomato", model.StringPtr("Soup")))
		require.NoError(t, store.SaveMapping(ctx, "c1", "tomato ", model.StringPtr("Salad")))
		require.NoError(t, store.SaveMapping(ctx, "c1", "Crème brûlée 寿司", model.StringPtr("Dessert ✓")))

		memory, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, memory, 3)
		assert.Equal(t, "Soup", *memory["Tomato"])
		assert.Equal(t, "Salad", *memory["tomato "])
		assert.Equal(t, "Dessert ✓", *memory["Crème brûlée 寿司"])
	})

	t.Run("customers are isolated", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("X")))
		require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{"X"}))

		memory, err := store.LoadMappings(ctx, "c2")
		require.NoError(t, err)
		assert.Empty(t, memory)

		list, err := store.LoadReferenceList(ctx, "c2")
		require.NoError(t, err)
		assert.False(t, list.Configured())
	})

	t.Run("list never uploaded is unconfigured", func(t *testing.T) {
		store := newStore(t)

		list, err := store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "c1", list.CustomerID)
		assert.False(t, list.Configured())
		assert.Empty(t, list.Items)
	})

	t.Run("replace list overwrites wholesale", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{"a", "b", "a"}))
		list, err := store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "a"}, list.Items)
		assert.False(t, list.UpdatedAt.IsZero())

		require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{"Ñandú"}))
		list, err = store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ñandú"}, list.Items)
	})

	t.Run("empty list upload is configured", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{}))
		list, err := store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, list.Configured())
		assert.Empty(t, list.Items)
	})

	t.Run("replace list does not touch memory", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SaveMapping(ctx, "c1", "A", model.StringPtr("X")))
		require.NoError(t, store.SaveMapping(ctx, "c1", "B", nil))
		before, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)

		require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{"Z"}))

		after, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("nil list is invalid", func(t *testing.T) {
		store := newStore(t)

		err := store.ReplaceReferenceList(ctx, "c1", nil)
		assert.ErrorIs(t, err, common.ErrInvalidList)

		list, err := store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, list.Configured())
	})

	t.Run("input validation", func(t *testing.T) {
		store := newStore(t)

		_, err := store.LoadMappings(ctx, "  ")
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		err = store.SaveMapping(ctx, "c1", "", model.StringPtr("X"))
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		err = store.SaveMapping(ctx, "c1", " ", model.StringPtr("X"))
		assert.NoError(t, err)
	})

	t.Run("invalid utf-8 is rejected before writing", func(t *testing.T) {
		store := newStore(t)

		err := store.SaveMapping(ctx, "c1", "Caf\xe9", model.StringPtr("Espresso"))
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		err = store.SaveMapping(ctx, "c1", "Coffee", model.StringPtr("Caf\xe9"))
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		err = store.ReplaceReferenceList(ctx, "c1", []string{"Espresso", "Caf\xe9"})
		assert.ErrorIs(t, err, common.ErrInvalidList)

		require.NoError(t, store.SaveMapping(ctx, "c1", "Café", model.StringPtr("Espresso")))
		memory, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, model.MappingMemory{"Café": model.StringPtr("Espresso")}, memory)

		list, err := store.LoadReferenceList(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, list.Configured())
	})

	t.Run("stored values are not aliased", func(t *testing.T) {
		store := newStore(t)

		value := "X"
		require.NoError(t, store.SaveMapping(ctx, "c1", "A", &value))
		value = "mutated"

		memory, err := store.LoadMappings(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "X", *memory["A"])
	})
}
