// Package engine implements the mapping resolution engine that resolves
// invoice line items against a customer's reference list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/llm"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/google/uuid"
)

// Engine orchestrates mapping runs and applies review decisions.
// Only ApplyDecision, Decide and Review write to the mapping memory.
type Engine struct {
	store     Store
	completer Completer
	extractor TextExtractor
	logger    *slog.Logger
	newRunID  func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRunIDGenerator replaces the run id source.
func WithRunIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// New creates an engine. extractor may be nil when only pre-extracted text
// is resolved.
func New(store Store, completer Completer, extractor TextExtractor, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		completer: completer,
		extractor: extractor,
		logger:    slog.Default(),
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitializeCustomer replaces the customer's reference list. The mapping
// memory is left untouched.
func (e *Engine) InitializeCustomer(ctx context.Context, customerID string, items []string) error {
	if err := validateCustomerID(customerID); err != nil {
		return err
	}
	if items == nil {
		return fmt.Errorf("%w: list is required", common.ErrInvalidList)
	}

	if err := e.store.ReplaceReferenceList(ctx, customerID, items); err != nil {
		return fmt.Errorf("failed to store reference list: %w", err)
	}

	e.logger.Info("Reference list replaced",
		"customer_id", customerID,
		"items", len(items))
	return nil
}

// ReferenceList returns the customer's current list.
func (e *Engine) ReferenceList(ctx context.Context, customerID string) (model.ReferenceList, error) {
	if err := validateCustomerID(customerID); err != nil {
		return model.ReferenceList{}, err
	}
	return e.store.LoadReferenceList(ctx, customerID)
}

// Mappings returns the customer's confirmed mapping memory.
func (e *Engine) Mappings(ctx context.Context, customerID string) (model.MappingMemory, error) {
	if err := validateCustomerID(customerID); err != nil {
		return nil, err
	}
	return e.store.LoadMappings(ctx, customerID)
}

// ResolveText runs a mapping for already extracted invoice text.
func (e *Engine) ResolveText(ctx context.Context, customerID, text string) (model.Resolution, error) {
	return e.Resolve(ctx, customerID, model.NewOCRPayload(text))
}

// Resolve runs one mapping: compile the prompt from the customer's list and
// memory, complete, validate and reconcile. It never writes customer state.
func (e *Engine) Resolve(ctx context.Context, customerID string, payload model.OCRPayload) (model.Resolution, error) {
	list, err := e.configuredList(ctx, customerID)
	if err != nil {
		return model.Resolution{}, err
	}
	return e.resolve(ctx, customerID, list, payload)
}

// ProcessDocument extracts text from doc and resolves it. The list is checked
// before OCR so an unconfigured customer costs no external call.
func (e *Engine) ProcessDocument(ctx context.Context, customerID string, doc model.Document) (model.Resolution, error) {
	list, err := e.configuredList(ctx, customerID)
	if err != nil {
		return model.Resolution{}, err
	}

	if e.extractor == nil {
		return model.Resolution{}, fmt.Errorf("%w: no text extractor configured", common.ErrOCRFailure)
	}

	payload, err := e.extractor.Extract(ctx, doc)
	if err != nil {
		if !errors.Is(err, common.ErrOCRFailure) {
			err = fmt.Errorf("%w: %w", common.ErrOCRFailure, err)
		}
		return model.Resolution{}, err
	}

	return e.resolve(ctx, customerID, list, payload)
}

// ApplyDecision records resolved (nil for "no match") for invoiceItem.
func (e *Engine) ApplyDecision(ctx context.Context, customerID, invoiceItem string, resolved *string) error {
	if err := validateCustomerID(customerID); err != nil {
		return err
	}
	if invoiceItem == "" {
		return fmt.Errorf("%w: invoice item is required", common.ErrInvalidInput)
	}

	if err := e.store.SaveMapping(ctx, customerID, invoiceItem, resolved); err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}

	e.logger.Info("Saved mapping",
		"customer_id", customerID,
		"invoice_item", invoiceItem,
		"resolved", describe(resolved))
	return nil
}

func (e *Engine) configuredList(ctx context.Context, customerID string) (model.ReferenceList, error) {
	if err := validateCustomerID(customerID); err != nil {
		return model.ReferenceList{}, err
	}

	list, err := e.store.LoadReferenceList(ctx, customerID)
	if err != nil {
		return model.ReferenceList{}, fmt.Errorf("failed to load reference list: %w", err)
	}
	if !list.Configured() {
		return model.ReferenceList{}, fmt.Errorf("%w: customer %q", common.ErrNoListConfigured, customerID)
	}
	return list, nil
}

func (e *Engine) resolve(ctx context.Context, customerID string, list model.ReferenceList, payload model.OCRPayload) (model.Resolution, error) {
	runID := e.newRunID()
	fields := common.Fields{"run_id": runID, "customer_id": customerID}
	start := time.Now()

	if payload.Empty() {
		return model.Resolution{}, fmt.Errorf("%w: no text to map", common.ErrOCRFailure)
	}

	memory, err := e.store.LoadMappings(ctx, customerID)
	if err != nil {
		return model.Resolution{}, fmt.Errorf("failed to load mappings: %w", err)
	}

	e.logger.Info("Starting mapping run", append(fields.Attrs(),
		"list_items", len(list.Items),
		"confirmed_mappings", len(memory))...)

	req, err := llm.BuildRequest(list.Items, memory, payload)
	if err != nil {
		return model.Resolution{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := e.completer.Complete(ctx, req)
	if err != nil {
		if !errors.Is(err, common.ErrCompletionUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrCompletionUnavailable, err)
		}
		return model.Resolution{}, err
	}

	items, err := llm.ParseMappingResponse(raw)
	if err != nil {
		e.logger.Error("Completion failed validation", append(fields.Attrs(),
			"error", err,
			"raw", raw)...)
		return model.Resolution{}, err
	}

	autoConfirmed, needsReview := Reconcile(items, memory)

	e.logger.Info("Mapping run complete", append(fields.Attrs(),
		"items", len(items),
		"auto_confirmed", len(autoConfirmed),
		"needs_review", len(needsReview),
		"duration", time.Since(start))...)

	return model.Resolution{
		RunID:         runID,
		CustomerID:    customerID,
		AutoConfirmed: autoConfirmed,
		NeedsReview:   needsReview,
	}, nil
}

func validateCustomerID(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return fmt.Errorf("%w: customer id is required", common.ErrInvalidInput)
	}
	return nil
}

func describe(resolved *string) string {
	if resolved == nil {
		return "<no match>"
	}
	return *resolved
}
