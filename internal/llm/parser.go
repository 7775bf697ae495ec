package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// Field names of the output contract. Keys must match exactly.
const (
	fieldMappedItems   = "mapped_items"
	fieldInvoiceItem   = "invoice_item"
	fieldProductCode   = "product_code"
	fieldQuantity      = "quantity"
	fieldPrice         = "price"
	fieldAmount        = "amount"
	fieldSuggestedItem = "suggested_item"
	fieldNotes         = "notes"
)

var (
	rootFields = []string{fieldMappedItems}
	itemFields = []string{
		fieldInvoiceItem, fieldProductCode, fieldQuantity, fieldPrice,
		fieldAmount, fieldSuggestedItem, fieldNotes,
	}
)

// ParseMappingResponse validates raw completion text. Exactly one surrounding
// fenced code block is removed before decoding; no other repair is attempted.
// Any failure returns a *common.MalformedCompletionError carrying raw, and no
// items.
func ParseMappingResponse(raw string) ([]model.MappedItem, error) {
	body := stripCodeFence(raw)

	root, err := decodeObject([]byte(body), rootFields, true)
	if err != nil {
		return nil, common.NewMalformedCompletion(raw, "response is not a valid mapping object", err)
	}

	list, ok := root[fieldMappedItems]
	if !ok || isNull(list) {
		return nil, common.NewMalformedCompletion(raw, "missing mapped_items array", nil)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(list, &elems); err != nil {
		return nil, common.NewMalformedCompletion(raw, "mapped_items is not an array", err)
	}

	items := make([]model.MappedItem, 0, len(elems))
	for i, elem := range elems {
		item, err := decodeItem(elem)
		if err != nil {
			return nil, common.NewMalformedCompletion(raw, fmt.Sprintf("item %d is invalid", i), err)
		}
		items = append(items, item)
	}

	return items, nil
}

func decodeItem(data json.RawMessage) (model.MappedItem, error) {
	fields, err := decodeObject(data, itemFields, false)
	if err != nil {
		return model.MappedItem{}, err
	}

	var item model.MappedItem
	var invoice, notes *string
	targets := []struct {
		dst  any
		name string
	}{
		{&invoice, fieldInvoiceItem},
		{&item.ProductCode, fieldProductCode},
		{&item.Quantity, fieldQuantity},
		{&item.Price, fieldPrice},
		{&item.Amount, fieldAmount},
		{&item.SuggestedItem, fieldSuggestedItem},
		{&notes, fieldNotes},
	}
	for _, target := range targets {
		value, ok := fields[target.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, target.dst); err != nil {
			return model.MappedItem{}, fmt.Errorf("field %s: %w", target.name, err)
		}
	}

	if invoice == nil || *invoice == "" {
		return model.MappedItem{}, fmt.Errorf("no %s", fieldInvoiceItem)
	}
	item.InvoiceItem = *invoice
	if notes != nil {
		item.Notes = *notes
	}
	return item, nil
}

// decodeObject reads one JSON object into its raw members. It rejects repeated
// keys and keys that differ from a known field only by case. With whole set,
// nothing may follow the object.
func decodeObject(data []byte, known []string, whole bool) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		if name, clash := caseVariant(key, known); clash {
			return nil, fmt.Errorf("key %q must be spelled %q", key, name)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if whole {
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("trailing data after JSON object")
		}
	}
	return fields, nil
}

// caseVariant reports whether key equals a known field ignoring case without
// being that field.
func caseVariant(key string, known []string) (string, bool) {
	for _, name := range known {
		if key != name && strings.EqualFold(key, name) {
			return name, true
		}
	}
	return "", false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stripCodeFence removes one ```json ... ``` or ``` ... ``` wrapper if the
// whole text is fenced.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		lang := strings.TrimSpace(inner[:nl])
		if lang == "" || strings.EqualFold(lang, "json") {
			inner = inner[nl+1:]
		}
	} else {
		inner = strings.TrimPrefix(inner, "json")
	}

	return inner
}
