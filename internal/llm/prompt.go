package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

const roleFraming = `You are a procurement matching assistant. Your task is to read text extracted from a supplier invoice and map each purchased line item to an entry of the customer's reference list (a menu or product catalog).`

const memoryIntro = `You have access to a memory of previously confirmed mappings for this customer. A null value means the item was confirmed to have no match.
Confirmed mappings:`

const taskIntro = `I will provide text blocks extracted by OCR from an invoice. Identify every line item in the invoice text and map each one using the following rules.`

const priorityRules = `Rules (highest priority first):
1. CONFIRMED MAPPING: if an invoice item is a key in the confirmed mappings, you MUST use the stored value exactly as given, including null.
2. DIRECT NAME MATCH: otherwise, if the invoice item's text contains the exact text of a reference list item (e.g. invoice item "Newland Barcode Scanner" and reference item "Newland"), you MUST map it to that reference item.
3. COMPONENT MATCH: otherwise, if the invoice item is a clearly recognizable ingredient or component of a reference item (e.g. "Tomatoes 5kg" for "Margherita Pizza"), you may map it to that reference item.
4. NO MATCH: otherwise set "suggested_item" to null.
Only ever suggest strings that appear in the reference list, copied exactly.`

const outputContract = `Your output must be a single valid JSON object with exactly this structure and no text outside of it:
{
  "mapped_items": [
    {
      "invoice_item": "The item name as written on the invoice (e.g. 'Roma Tomatoes 5kg')",
      "product_code": "The supplier product code or SKU if printed, otherwise null",
      "quantity": "The purchased quantity as a number, otherwise null",
      "price": "The unit price as a number, otherwise null",
      "amount": "The line total as a number, otherwise null",
      "suggested_item": "The best matching reference list item, or null",
      "notes": "A brief explanation of the mapping or of why no match was found"
    }
  ]
}`

// CompilePrompt builds the system instruction for one mapping run. Sections
// appear in a fixed order: role framing, confirmed mappings (only when memory
// is non-empty), the reference list, the priority rules and the output shape.
func CompilePrompt(list []string, memory model.MappingMemory) (string, error) {
	var b strings.Builder

	b.WriteString(roleFraming)
	b.WriteString("\n\n")

	if len(memory) > 0 {
		block, err := encodeJSON(memory, "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode confirmed mappings: %w", err)
		}
		b.WriteString(memoryIntro)
		b.WriteString("\n")
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	listing, err := quoteList(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode reference list: %w", err)
	}
	b.WriteString("Reference list:\n")
	b.WriteString(listing)
	b.WriteString("\n\n")

	b.WriteString(taskIntro)
	b.WriteString("\n\n")
	b.WriteString(priorityRules)
	b.WriteString("\n\n")
	b.WriteString(outputContract)

	return b.String(), nil
}

// BuildRequest assembles the provider-neutral request for one invoice.
func BuildRequest(list []string, memory model.MappingMemory, payload model.OCRPayload) (model.CompletionRequest, error) {
	system, err := CompilePrompt(list, memory)
	if err != nil {
		return model.CompletionRequest{}, err
	}

	user, err := encodeJSON(payload, "")
	if err != nil {
		return model.CompletionRequest{}, fmt.Errorf("failed to encode invoice text: %w", err)
	}

	return model.CompletionRequest{System: system, User: user}, nil
}

// quoteList renders items as ["a", "b"] with each item JSON-quoted so that
// embedded quotes cannot break the listing.
func quoteList(items []string) (string, error) {
	quoted := make([]string, len(items))
	for i, item := range items {
		q, err := encodeJSON(item, "")
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return "[" + strings.Join(quoted, ", ") + "]", nil
}

// encodeJSON marshals v without HTML escaping so non-ASCII and markup
// characters reach the model verbatim. Map keys come out sorted.
func encodeJSON(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
