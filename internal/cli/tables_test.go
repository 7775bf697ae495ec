package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestRenderResolution(t *testing.T) {
	res := model.Resolution{
		AutoConfirmed: []model.MappedItem{{
			InvoiceItem:   "Tomatoes 5kg",
			Quantity:      floatPtr(2),
			Price:         floatPtr(3.5),
			SuggestedItem: model.StringPtr("Margherita"),
		}},
		NeedsReview: []model.MappedItem{{
			InvoiceItem: "Bleach",
			ProductCode: model.StringPtr("BL-1"),
		}},
	}

	var out bytes.Buffer
	require.NoError(t, RenderResolution(&out, res))

	text := out.String()
	assert.Contains(t, text, "Auto-Confirmed Mappings (from Memory): 1")
	assert.Contains(t, text, "New Items Needing Review: 1")
	assert.Contains(t, text, "Tomatoes 5kg")
	assert.Contains(t, text, "3.5")
	assert.Contains(t, text, "BL-1")
	assert.Contains(t, text, noMatchLabel)
}

func TestRenderResolution_Messages(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderResolution(&out, model.Resolution{}))
	assert.Contains(t, out.String(), "No items were found on the invoice to map")

	out.Reset()
	require.NoError(t, RenderResolution(&out, model.Resolution{
		AutoConfirmed: []model.MappedItem{{InvoiceItem: "Bleach"}},
	}))
	assert.Contains(t, out.String(), "All items were auto-confirmed")
	assert.NotContains(t, out.String(), "Needing Review")
}

func TestRenderMemory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderMemory(&out, model.MappingMemory{
		"Zucchini":     model.StringPtr("Margherita"),
		"Bleach":       nil,
		"Силікон 5шт": model.StringPtr("Герметик"),
	}))

	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Bleach")), bytes.Index(out.Bytes(), []byte("Zucchini")))
	assert.Contains(t, text, "Герметик")
	assert.Contains(t, text, noMatchLabel)

	out.Reset()
	require.NoError(t, RenderMemory(&out, model.MappingMemory{}))
	assert.Contains(t, out.String(), "No confirmed mappings yet")
}

func TestRenderReferenceList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderReferenceList(&out, model.ReferenceList{CustomerID: "c", Items: []string{"Margherita", "Tiramisu"}}))
	assert.Contains(t, out.String(), "  2. Tiramisu")

	out.Reset()
	require.NoError(t, RenderReferenceList(&out, model.ReferenceList{CustomerID: "c"}))
	assert.Contains(t, out.String(), "No reference list uploaded for c")

	out.Reset()
	require.NoError(t, RenderReferenceList(&out, model.ReferenceList{CustomerID: "c", Items: []string{}}))
	assert.Contains(t, out.String(), "empty")
}
