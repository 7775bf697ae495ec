package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/config"
	"github.com/Veraticus/invoice-mapper/internal/engine"
	"github.com/Veraticus/invoice-mapper/internal/llm"
	"github.com/Veraticus/invoice-mapper/internal/ocr"
	"github.com/Veraticus/invoice-mapper/internal/service"
	"github.com/Veraticus/invoice-mapper/internal/storage"
)

// initStorage opens the configured backend and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return nil, err
	}

	var store service.Storage
	switch cfg.Backend {
	case config.BackendRedis:
		store, err = storage.NewRedisStorage(ctx, cfg.Redis)
	default:
		store, err = storage.NewSQLiteStorage(cfg.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initCompleter builds the rate-limited completion client from llm.* settings.
func initCompleter() (*llm.Completer, error) {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError(
				"No LLM API key configured. Set OPENAI_API_KEY or ANTHROPIC_API_KEY (or llm.*_api_key in config.yaml).", err)
		}
		return nil, err
	}
	return llm.NewCompleter(cfg, slog.Default())
}

// initExtractor routes text invoices locally and images/PDFs to Cloud Vision
// when credentials are configured.
func initExtractor(ctx context.Context) (*ocr.Router, error) {
	cfg, err := config.LoadOCRConfig()
	if err != nil {
		return nil, err
	}

	if cfg.ServiceAccountPath == "" && cfg.APIKey == "" && !viper.GetBool("ocr.use_default_credentials") {
		slog.Debug("No Vision credentials configured, only text invoices are supported")
		return ocr.NewRouter(nil), nil
	}

	vision, err := ocr.NewVisionExtractor(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision extractor: %w", err)
	}
	return ocr.NewRouter(vision), nil
}

// newEngine wires a store-only engine. Commands that resolve invoices use
// newResolvingEngine instead.
func newEngine(store service.Storage) *engine.Engine {
	return engine.New(store, nil, nil, engine.WithLogger(slog.Default()))
}

func newResolvingEngine(ctx context.Context, store service.Storage) (*engine.Engine, error) {
	completer, err := initCompleter()
	if err != nil {
		return nil, err
	}
	extractor, err := initExtractor(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(store, completer, extractor, engine.WithLogger(slog.Default())), nil
}
