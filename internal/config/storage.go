package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/storage"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StorageConfig selects and configures the customer state backend.
type StorageConfig struct {
	Backend      string
	DatabasePath string
	Redis        storage.RedisOptions
}

// DefaultDatabasePath returns $HOME/.local/share/mapper/mapper.db.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "mapper", "mapper.db"), nil
}

// LoadStorageConfig reads storage.backend, database.path and redis.* settings.
func LoadStorageConfig() (StorageConfig, error) {
	config := StorageConfig{
		Backend: viper.GetString("storage.backend"),
	}
	if config.Backend == "" {
		config.Backend = BackendSQLite
	}

	switch config.Backend {
	case BackendSQLite:
		path := viper.GetString("database.path")
		if path == "" {
			defaultPath, err := DefaultDatabasePath()
			if err != nil {
				return StorageConfig{}, err
			}
			path = defaultPath
		}
		config.DatabasePath = ExpandPath(path)

	case BackendRedis:
		config.Redis = storage.RedisOptions{
			Addr:     viper.GetString("redis.addr"),
			Password: firstNonEmpty(viper.GetString("redis.password"), os.Getenv("REDIS_PASSWORD")),
			DB:       viper.GetInt("redis.db"),
			Prefix:   viper.GetString("redis.prefix"),
		}
		if config.Redis.Addr == "" {
			config.Redis.Addr = "localhost:6379"
		}

	default:
		return StorageConfig{}, fmt.Errorf("%w: unsupported storage backend: %s", common.ErrInvalidConfig, config.Backend)
	}

	return config, nil
}
