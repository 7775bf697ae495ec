package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/service"
	"github.com/redis/go-redis/v9"
)

var _ service.Storage = (*RedisStorage)(nil)

// DefaultRedisPrefix namespaces every key written by RedisStorage.
const DefaultRedisPrefix = "mapper"

// maxWatchAttempts bounds optimistic retries when another writer touches the
// same mapping record between our read and our write.
const maxWatchAttempts = 5

// RedisOptions configures a RedisStorage connection.
type RedisOptions struct {
	Addr     string
	Password string
	Prefix   string
	DB       int
}

// RedisStorage implements the Storage interface on Redis. Each customer's
// memory and list are stored as one JSON string each, the same whole-record
// shape used by the SQLite store.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	if err := validateString(opts.Addr, "addr"); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStorageWithClient(client, opts.Prefix), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) mappingsKey(customerID string) string {
	return fmt.Sprintf("%s:customer:%s:mappings", s.prefix, customerID)
}

func (s *RedisStorage) listKey(customerID string) string {
	return fmt.Sprintf("%s:customer:%s:list", s.prefix, customerID)
}

func (s *RedisStorage) customersKey() string {
	return s.prefix + ":customers"
}

// Migrate only checks connectivity; Redis records need no schema.
func (s *RedisStorage) Migrate(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return common.Persistence("ping redis", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// ListCustomers returns every known customer id in lexical order.
func (s *RedisStorage) ListCustomers(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.customersKey()).Result()
	if err != nil {
		return nil, common.Persistence("list customers", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadMappings returns the customer's memory, creating "{}" on first access.
func (s *RedisStorage) LoadMappings(ctx context.Context, customerID string) (model.MappingMemory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return nil, err
	}

	key := s.mappingsKey(customerID)
	if err := s.materialize(ctx, customerID, key); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, common.Persistence("read mappings", err)
	}

	memory, err := decodeMappings(data)
	if err != nil {
		return nil, common.Persistence("load mappings", err)
	}
	return memory, nil
}

// SaveMapping performs the read-modify-write under WATCH so a concurrent
// writer causes a retry instead of a silently lost update.
func (s *RedisStorage) SaveMapping(ctx context.Context, customerID, invoiceItem string, resolved *string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return err
	}
	if err := validateMapping(invoiceItem, resolved); err != nil {
		return err
	}

	key := s.mappingsKey(customerID)
	if err := s.materialize(ctx, customerID, key); err != nil {
		return err
	}

	update := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		memory, err := decodeMappings(data)
		if err != nil {
			return err
		}
		memory[invoiceItem] = model.CloneString(resolved)

		encoded, err := json.Marshal(memory)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := s.client.Watch(ctx, update, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return common.Persistence("save mapping", err)
	}

	return common.Persistence("save mapping", fmt.Errorf("record changed %d times during update", maxWatchAttempts))
}

// ReplaceReferenceList overwrites the customer's list key.
func (s *RedisStorage) ReplaceReferenceList(ctx context.Context, customerID string, items []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return err
	}
	if err := validateListItems(items); err != nil {
		return err
	}

	data, err := json.Marshal(model.ReferenceList{
		CustomerID: customerID,
		Items:      items,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidList, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.customersKey(), customerID)
		pipe.Set(ctx, s.listKey(customerID), data, 0)
		return nil
	})
	if err != nil {
		return common.Persistence("write list", err)
	}
	return nil
}

// LoadReferenceList returns the stored list, or an unconfigured empty list.
func (s *RedisStorage) LoadReferenceList(ctx context.Context, customerID string) (model.ReferenceList, error) {
	list := model.ReferenceList{CustomerID: customerID}

	if err := validateContext(ctx); err != nil {
		return list, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return list, err
	}

	data, err := s.client.Get(ctx, s.listKey(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return list, nil
	}
	if err != nil {
		return list, common.Persistence("read list", err)
	}

	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return model.ReferenceList{CustomerID: customerID}, common.Persistence("decode list", err)
	}
	if list.Items == nil {
		list.Items = []string{}
	}
	list.CustomerID = customerID

	return list, nil
}

func (s *RedisStorage) materialize(ctx context.Context, customerID, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.customersKey(), customerID)
		pipe.SetNX(ctx, key, "{}", 0)
		return nil
	})
	if err != nil {
		return common.Persistence("materialize mappings", err)
	}
	return nil
}
