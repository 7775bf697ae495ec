package ocr

import (
	"context"
	"fmt"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// Extractor turns a document into OCR text.
type Extractor interface {
	Extract(ctx context.Context, doc model.Document) (model.OCRPayload, error)
}

// Router dispatches documents to an extractor by media type.
type Router struct {
	byType map[string]Extractor
}

// NewRouter sends PDFs and images to images (which may be nil when no Vision
// credentials are configured) and plain text to a TextFileExtractor.
func NewRouter(images Extractor) *Router {
	r := &Router{byType: map[string]Extractor{
		model.MediaTypeText: TextFileExtractor{},
	}}
	if images != nil {
		r.byType[model.MediaTypePDF] = images
		r.byType[model.MediaTypePNG] = images
		r.byType[model.MediaTypeJPEG] = images
	}
	return r
}

// Extract implements Extractor.
func (r *Router) Extract(ctx context.Context, doc model.Document) (model.OCRPayload, error) {
	extractor, ok := r.byType[doc.MediaType]
	if !ok {
		return model.OCRPayload{}, fmt.Errorf("%w: no extractor configured for media type %q", common.ErrOCRFailure, doc.MediaType)
	}
	return extractor.Extract(ctx, doc)
}
