package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/invoice-mapper/internal/common"
)

// Media types accepted for invoice documents.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
	MediaTypeText = "text/plain"
)

// Document is an uploaded invoice awaiting text extraction.
type Document struct {
	Name      string
	MediaType string
	Content   []byte
}

// MediaTypeFromFilename maps an invoice file name to its media type.
func MediaTypeFromFilename(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaTypePDF, nil
	case ".png":
		return MediaTypePNG, nil
	case ".jpg", ".jpeg":
		return MediaTypeJPEG, nil
	case ".txt":
		return MediaTypeText, nil
	default:
		return "", fmt.Errorf("%w: unsupported invoice file type %q", common.ErrInvalidInput, filepath.Ext(name))
	}
}

// TextBlock is one contiguous region of extracted text.
type TextBlock struct {
	Text string `json:"text"`
}

// OCRPayload is the extracted invoice text handed to the completion step.
type OCRPayload struct {
	TextBlocks []TextBlock `json:"text_blocks"`
}

// NewOCRPayload wraps a single extracted text into a payload.
func NewOCRPayload(text string) OCRPayload {
	return OCRPayload{TextBlocks: []TextBlock{{Text: text}}}
}

// Empty reports whether the payload carries no non-blank text.
func (p OCRPayload) Empty() bool {
	for _, b := range p.TextBlocks {
		if strings.TrimSpace(b.Text) != "" {
			return false
		}
	}
	return true
}

// CompletionRequest is a provider-neutral chat completion request.
type CompletionRequest struct {
	System string
	User   string
}
