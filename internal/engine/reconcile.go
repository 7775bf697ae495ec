package engine

import "github.com/Veraticus/invoice-mapper/internal/model"

// Reconcile splits validated items into auto-confirmed and needs-review, in
// input order. An item whose invoice_item is an exact memory key is
// auto-confirmed and its suggestion is replaced by the stored value, whatever
// the model proposed. Every other item passes through unchanged.
func Reconcile(items []model.MappedItem, memory model.MappingMemory) (autoConfirmed, needsReview []model.MappedItem) {
	autoConfirmed = make([]model.MappedItem, 0, len(items))
	needsReview = make([]model.MappedItem, 0, len(items))

	for _, item := range items {
		if stored, ok := memory.Lookup(item.InvoiceItem); ok {
			item.SuggestedItem = model.CloneString(stored)
			autoConfirmed = append(autoConfirmed, item)
			continue
		}
		needsReview = append(needsReview, item)
	}

	return autoConfirmed, needsReview
}
