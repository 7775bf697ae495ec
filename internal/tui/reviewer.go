package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/invoice-mapper/internal/engine"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrReviewAborted is returned when the user quits the review.
var ErrReviewAborted = errors.New("review aborted")

// Reviewer implements engine.Reviewer with a full-screen program per item.
type Reviewer struct {
	theme     themes.Theme
	input     io.Reader
	output    io.Writer
	altScreen bool
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(r *Reviewer) { r.theme = theme }
}

// WithIO replaces the terminal with in and out and disables the alternate screen.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Reviewer) {
		r.input = in
		r.output = out
		r.altScreen = false
	}
}

// New creates a TUI reviewer.
func New(opts ...Option) *Reviewer {
	r := &Reviewer{theme: themes.Default, altScreen: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decide implements engine.Reviewer.
func (r *Reviewer) Decide(ctx context.Context, req model.ReviewRequest) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.Decision{}, err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if r.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if r.input != nil {
		opts = append(opts, tea.WithInput(r.input))
	}
	if r.output != nil {
		opts = append(opts, tea.WithOutput(r.output))
	}

	final, err := tea.NewProgram(newModel(req, r.theme), opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Decision{}, ctxErr
		}
		return model.Decision{}, fmt.Errorf("failed to run TUI: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return model.Decision{}, fmt.Errorf("unexpected TUI model %T", final)
	}
	decision, decided := m.Decision()
	if !decided {
		return model.Decision{}, ErrReviewAborted
	}
	return decision, nil
}

var _ engine.Reviewer = (*Reviewer)(nil)
