package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

// Decide applies one human decision to a needs-review item and returns the
// terminal state it reached. A correction whose target is not on the
// customer's current reference list fails with common.ErrRetrySelection and
// writes nothing.
func (e *Engine) Decide(ctx context.Context, customerID string, item model.MappedItem, decision model.Decision) (model.ReviewState, error) {
	switch decision.Kind {
	case model.DecisionConfirm:
		if err := e.ApplyDecision(ctx, customerID, item.InvoiceItem, model.CloneString(item.SuggestedItem)); err != nil {
			return model.ReviewPending, err
		}
		return model.ReviewConfirmed, nil

	case model.DecisionCorrect:
		list, err := e.configuredList(ctx, customerID)
		if err != nil {
			return model.ReviewPending, err
		}
		if !list.Contains(decision.Target) {
			return model.ReviewPending, fmt.Errorf("%w: %q is not on the reference list", common.ErrRetrySelection, decision.Target)
		}
		target := decision.Target
		if err := e.ApplyDecision(ctx, customerID, item.InvoiceItem, &target); err != nil {
			return model.ReviewPending, err
		}
		return model.ReviewCorrected, nil

	case model.DecisionMarkNoMatch:
		if err := e.ApplyDecision(ctx, customerID, item.InvoiceItem, nil); err != nil {
			return model.ReviewPending, err
		}
		return model.ReviewMarkedNoMatch, nil

	case model.DecisionSkip:
		e.logger.Debug("Skipped item", "customer_id", customerID, "invoice_item", item.InvoiceItem)
		return model.ReviewSkipped, nil

	default:
		return model.ReviewPending, fmt.Errorf("%w: unknown decision %q", common.ErrInvalidInput, decision.Kind)
	}
}

// Review walks every needs-review item through reviewer. An item whose
// correction is rejected is asked again with the rejection attached. Any
// other error stops the loop; decisions already applied stay written.
func (e *Engine) Review(ctx context.Context, customerID string, items []model.MappedItem, reviewer Reviewer) (model.ReviewStats, error) {
	var stats model.ReviewStats
	if len(items) == 0 {
		return stats, nil
	}

	list, err := e.configuredList(ctx, customerID)
	if err != nil {
		return stats, err
	}

	for i, item := range items {
		req := model.ReviewRequest{
			Item:          item,
			ReferenceList: list.Items,
			Position:      i + 1,
			Total:         len(items),
		}

		state := model.ReviewPending
		for !state.Terminal() {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			decision, err := reviewer.Decide(ctx, req)
			if err != nil {
				return stats, fmt.Errorf("review of %q: %w", item.InvoiceItem, err)
			}

			state, err = e.Decide(ctx, customerID, item, decision)
			if errors.Is(err, common.ErrRetrySelection) {
				stats.Rejected++
				req.Rejected = err
				continue
			}
			if err != nil {
				return stats, err
			}
		}

		stats.Record(state)
	}

	e.logger.Info("Review complete",
		"customer_id", customerID,
		"confirmed", stats.Confirmed,
		"corrected", stats.Corrected,
		"no_match", stats.MarkedNoMatch,
		"skipped", stats.Skipped,
		"rejected", stats.Rejected)

	return stats, nil
}
