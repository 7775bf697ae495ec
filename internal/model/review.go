package model

import "fmt"

// DecisionKind is the human verdict on one needs-review item.
type DecisionKind string

// Decision kinds.
const (
	DecisionConfirm     DecisionKind = "confirm"
	DecisionCorrect     DecisionKind = "correct"
	DecisionMarkNoMatch DecisionKind = "no_match"
	DecisionSkip        DecisionKind = "skip"
)

// ParseDecisionKind converts an external decision name into a DecisionKind.
func ParseDecisionKind(s string) (DecisionKind, error) {
	switch k := DecisionKind(s); k {
	case DecisionConfirm, DecisionCorrect, DecisionMarkNoMatch, DecisionSkip:
		return k, nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// Decision is a verdict plus, for corrections, the chosen reference item.
type Decision struct {
	Kind   DecisionKind `json:"decision"`
	Target string       `json:"target,omitempty"`
}

// Confirm accepts the suggestion as-is.
func Confirm() Decision { return Decision{Kind: DecisionConfirm} }

// Correct replaces the suggestion with target.
func Correct(target string) Decision { return Decision{Kind: DecisionCorrect, Target: target} }

// MarkNoMatch records that the item has no reference counterpart.
func MarkNoMatch() Decision { return Decision{Kind: DecisionMarkNoMatch} }

// Skip leaves the item unresolved without writing anything.
func Skip() Decision { return Decision{Kind: DecisionSkip} }

// ReviewState tracks a needs-review item through the confirmation loop.
type ReviewState string

// Review states. Every state except ReviewPending is terminal.
const (
	ReviewPending       ReviewState = "pending"
	ReviewConfirmed     ReviewState = "confirmed"
	ReviewCorrected     ReviewState = "corrected"
	ReviewMarkedNoMatch ReviewState = "marked_no_match"
	ReviewSkipped       ReviewState = "skipped"
)

// Terminal reports whether no further decision may be applied.
func (s ReviewState) Terminal() bool {
	return s != ReviewPending && s != ""
}

// Resolution is the result of one mapping run.
type Resolution struct {
	RunID         string       `json:"run_id"`
	CustomerID    string       `json:"customer_id"`
	AutoConfirmed []MappedItem `json:"auto_confirmed_items"`
	NeedsReview   []MappedItem `json:"new_suggestions"`
}

// ReviewStats summarizes a confirmation loop run.
type ReviewStats struct {
	Confirmed     int
	Corrected     int
	MarkedNoMatch int
	Skipped       int
	Rejected      int
}

// Total returns the number of items that reached a terminal state.
func (s ReviewStats) Total() int {
	return s.Confirmed + s.Corrected + s.MarkedNoMatch + s.Skipped
}

// Written returns the number of decisions persisted to the mapping memory.
func (s ReviewStats) Written() int {
	return s.Confirmed + s.Corrected + s.MarkedNoMatch
}

// Record counts a terminal state.
func (s *ReviewStats) Record(state ReviewState) {
	switch state {
	case ReviewConfirmed:
		s.Confirmed++
	case ReviewCorrected:
		s.Corrected++
	case ReviewMarkedNoMatch:
		s.MarkedNoMatch++
	case ReviewSkipped:
		s.Skipped++
	}
}

// ReviewRequest is what a reviewer sees when asked to decide one item.
type ReviewRequest struct {
	Rejected      error
	Item          MappedItem
	ReferenceList []string
	Position      int
	Total         int
}
