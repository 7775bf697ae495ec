package ocr

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// TextFileExtractor passes pre-extracted plain-text invoices through unchanged.
type TextFileExtractor struct{}

// Extract returns the document content as a single text block.
func (TextFileExtractor) Extract(_ context.Context, doc model.Document) (model.OCRPayload, error) {
	if !utf8.Valid(doc.Content) {
		return model.OCRPayload{}, fmt.Errorf("%w: %s is not valid UTF-8 text", common.ErrOCRFailure, doc.Name)
	}

	text := string(doc.Content)
	if strings.TrimSpace(text) == "" {
		return model.OCRPayload{}, fmt.Errorf("%w: no text found in %s", common.ErrOCRFailure, doc.Name)
	}

	return model.NewOCRPayload(text), nil
}
