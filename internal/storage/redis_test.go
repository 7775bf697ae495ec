package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/service"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStorageWithClient(client, "test")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStorage_Contract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) service.Storage {
		t.Helper()
		store, _ := createTestRedisStorage(t)
		return store
	})
}

func TestRedisStorage_KeyLayout(t *testing.T) {
	store, mr := createTestRedisStorage(t)
	ctx := context.Background()

	_, err := store.LoadMappings(ctx, "c1")
	require.NoError(t, err)

	raw, err := mr.Get("test:customer:c1:mappings")
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)

	require.NoError(t, store.SaveMapping(ctx, "c1", "napkins", nil))
	raw, err = mr.Get("test:customer:c1:mappings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"napkins": null}`, raw)

	require.NoError(t, store.ReplaceReferenceList(ctx, "c1", []string{"Soup"}))
	assert.True(t, mr.Exists("test:customer:c1:list"))

	members, err := mr.Members("test:customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, members)
}

func TestRedisStorage_CorruptRecordIsPersistenceFailure(t *testing.T) {
	store, mr := createTestRedisStorage(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:customer:c1:mappings", "not json"))

	_, err := store.LoadMappings(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrPersistence)

	err = store.SaveMapping(ctx, "c1", "A", model.StringPtr("X"))
	assert.ErrorIs(t, err, common.ErrPersistence)

	raw, err := mr.Get("test:customer:c1:mappings")
	require.NoError(t, err)
	assert.Equal(t, "not json", raw)
}

func TestRedisStorage_ServerDown(t *testing.T) {
	store, mr := createTestRedisStorage(t)
	mr.Close()

	ctx := context.Background()

	_, err := store.LoadMappings(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrPersistence)

	err = store.ReplaceReferenceList(ctx, "c1", []string{"a"})
	assert.ErrorIs(t, err, common.ErrPersistence)

	err = store.Migrate(ctx)
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestNewRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedisStorage(ctx, RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, DefaultRedisPrefix, store.prefix)

	_, err = NewRedisStorage(ctx, RedisOptions{})
	assert.ErrorIs(t, err, ErrEmptyString)
}
