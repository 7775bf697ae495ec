// Package model defines the core domain models used throughout the application.
package model

import "sort"

// MappingMemory is a customer's confirmed invoice item resolutions.
// A nil value records a confirmed "no match". Keys are exact strings:
// no trimming, case folding or unicode normalization is ever applied.
type MappingMemory map[string]*string

// Lookup returns the stored resolution for invoiceItem and whether the key exists.
func (m MappingMemory) Lookup(invoiceItem string) (*string, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[invoiceItem]
	return v, ok
}

// Clone returns a deep copy so callers can mutate values without touching m.
func (m MappingMemory) Clone() MappingMemory {
	out := make(MappingMemory, len(m))
	for k, v := range m {
		out[k] = CloneString(v)
	}
	return out
}

// Keys returns the invoice items in lexical order.
func (m MappingMemory) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MappedItem is one line of a completion after validation.
type MappedItem struct {
	ProductCode   *string  `json:"product_code"`
	Quantity      *float64 `json:"quantity"`
	Price         *float64 `json:"price"`
	Amount        *float64 `json:"amount"`
	SuggestedItem *string  `json:"suggested_item"`
	InvoiceItem   string   `json:"invoice_item"`
	Notes         string   `json:"notes"`
}

// HasSuggestion reports whether the item carries a non-null suggestion.
func (i MappedItem) HasSuggestion() bool {
	return i.SuggestedItem != nil
}

// Suggestion returns the suggested item or "" for no match.
func (i MappedItem) Suggestion() string {
	if i.SuggestedItem == nil {
		return ""
	}
	return *i.SuggestedItem
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// CloneString copies the pointee so two records never share storage.
func CloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
