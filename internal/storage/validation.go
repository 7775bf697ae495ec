// Package storage provides the customer state persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/invoice-mapper/internal/common"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
	ErrEmptyInvoiceKey = fmt.Errorf("%w: invoice item cannot be empty", common.ErrInvalidInput)
	ErrInvalidUTF8     = fmt.Errorf("%w: text is not valid UTF-8", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not blank.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMapping rejects the empty key and text that would not survive JSON
// encoding unchanged. Whitespace is significant because keys are matched byte
// for byte.
func validateMapping(invoiceItem string, resolved *string) error {
	if invoiceItem == "" {
		return ErrEmptyInvoiceKey
	}
	if !utf8.ValidString(invoiceItem) {
		return fmt.Errorf("%w: invoice item %q", ErrInvalidUTF8, invoiceItem)
	}
	if resolved != nil && !utf8.ValidString(*resolved) {
		return fmt.Errorf("%w: resolved item %q", ErrInvalidUTF8, *resolved)
	}
	return nil
}

// validateListItems rejects a missing list and items that are not valid
// UTF-8. An empty list is a valid upload.
func validateListItems(items []string) error {
	if items == nil {
		return fmt.Errorf("%w: items cannot be nil", common.ErrInvalidList)
	}
	for i, item := range items {
		if !utf8.ValidString(item) {
			return fmt.Errorf("%w: item %d is not valid UTF-8", common.ErrInvalidList, i)
		}
	}
	return nil
}
