package engine

import (
	"context"

	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/service"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks -source=interfaces.go

// Store is the customer state the engine reads and writes.
type Store interface {
	service.MappingStore
	service.ReferenceListRepository
}

// Completer returns raw completion text for a mapping request.
type Completer interface {
	Complete(ctx context.Context, req model.CompletionRequest) (string, error)
}

// TextExtractor turns an invoice document into OCR text.
type TextExtractor interface {
	Extract(ctx context.Context, doc model.Document) (model.OCRPayload, error)
}

// Reviewer asks a human for a decision on one needs-review item.
type Reviewer interface {
	Decide(ctx context.Context, req model.ReviewRequest) (model.Decision, error)
}
