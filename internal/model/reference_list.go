package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"gopkg.in/yaml.v3"
)

// ReferenceList is the customer's ordered set of canonical targets.
// Duplicates are allowed and order is preserved as uploaded.
type ReferenceList struct {
	UpdatedAt  time.Time `json:"updated_at"`
	CustomerID string    `json:"customer_id"`
	Items      []string  `json:"items"`
}

// Configured reports whether a list was ever uploaded for the customer.
// An uploaded empty list still counts as configured.
func (l ReferenceList) Configured() bool {
	return l.Items != nil
}

// Contains reports whether item is an exact member of the list.
func (l ReferenceList) Contains(item string) bool {
	for _, candidate := range l.Items {
		if candidate == item {
			return true
		}
	}
	return false
}

// ListFormat identifies the encoding of an uploaded reference list document.
type ListFormat string

// Supported list formats.
const (
	ListFormatJSON ListFormat = "json"
	ListFormatYAML ListFormat = "yaml"
)

// ListFormatFromFilename picks the decoder for an uploaded file name.
func ListFormatFromFilename(name string) (ListFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ListFormatJSON, nil
	case ".yaml", ".yml":
		return ListFormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q, expected .json, .yaml or .yml", common.ErrInvalidList, filepath.Ext(name))
	}
}

// DecodeReferenceList parses a list document whose root must be a flat
// sequence of strings. Any other shape is rejected with common.ErrInvalidList.
func DecodeReferenceList(data []byte, format ListFormat) ([]string, error) {
	var root any
	switch format {
	case ListFormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidList, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("%w: trailing data after list", common.ErrInvalidList)
		}
	case ListFormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidList, err)
		}
		return decodeYAMLList(&node)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", common.ErrInvalidList, format)
	}

	seq, ok := root.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: root must be a list of strings", common.ErrInvalidList)
	}
	items := make([]string, 0, len(seq))
	for i, v := range seq {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a string", common.ErrInvalidList, i)
		}
		items = append(items, s)
	}
	return items, nil
}

// decodeYAMLList walks the node tree directly so that scalars like 12 or true
// are rejected instead of being coerced into strings.
func decodeYAMLList(doc *yaml.Node) ([]string, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: empty document", common.ErrInvalidList)
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: root must be a list of strings", common.ErrInvalidList)
	}
	items := make([]string, 0, len(root.Content))
	for i, n := range root.Content {
		if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
			return nil, fmt.Errorf("%w: element %d is not a string", common.ErrInvalidList, i)
		}
		items = append(items, n.Value)
	}
	return items, nil
}
