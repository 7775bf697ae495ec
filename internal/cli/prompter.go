package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/invoice-mapper/internal/engine"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/schollz/progressbar/v3"
)

// Prompter asks for review decisions on the terminal.
type Prompter struct {
	startTime    time.Time
	writer       io.Writer
	reader       *LineReader
	progressBar  *progressbar.ProgressBar
	showProgress bool
	lastPosition int
}

// NewCLIPrompter creates a prompter reading from reader and writing to writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// EnableProgress draws a progress bar across the review session.
func (p *Prompter) EnableProgress() {
	p.showProgress = true
}

// Decide shows one needs-review item and returns the user's decision.
func (p *Prompter) Decide(ctx context.Context, req model.ReviewRequest) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.Decision{}, err
	}

	p.updateProgress(req)

	if req.Rejected != nil {
		if _, err := fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("%v. Choose an item from the reference list.", req.Rejected))); err != nil {
			return model.Decision{}, fmt.Errorf("failed to write rejection: %w", err)
		}
	}

	title := fmt.Sprintf("Item %d of %d", req.Position, req.Total)
	if _, err := fmt.Fprintln(p.writer, itemCard(title, formatItem(req.Item)...)); err != nil {
		return model.Decision{}, fmt.Errorf("failed to write item box: %w", err)
	}

	if err := p.writeOptions(req.Item); err != nil {
		return model.Decision{}, err
	}

	choice, err := p.promptChoice(ctx, "Choice", []string{"c", "r", "n", "s"})
	if err != nil {
		return model.Decision{}, err
	}

	switch choice {
	case "c":
		return model.Confirm(), nil
	case "r":
		return p.promptSelection(ctx, req.ReferenceList)
	case "n":
		return model.MarkNoMatch(), nil
	case "s":
		return model.Skip(), nil
	}

	return model.Decision{}, fmt.Errorf("unexpected choice: %s", choice)
}

// ShowCompletion writes the review summary.
func (p *Prompter) ShowCompletion(stats model.ReviewStats) {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	summary := []string{
		fmt.Sprintf("%s Confirmed: %d", detailsMark, stats.Confirmed),
		fmt.Sprintf("%s Corrected: %d", detailsMark, stats.Corrected),
		fmt.Sprintf("%s Marked no match: %d", detailsMark, stats.MarkedNoMatch),
		fmt.Sprintf("%s Skipped: %d", detailsMark, stats.Skipped),
		fmt.Sprintf("%s Saved to memory: %d %s", detailsMark, stats.Written(), memoryMark),
		fmt.Sprintf("%s Time taken: %s", detailsMark, time.Since(p.startTime).Round(time.Second)),
	}
	if stats.Rejected > 0 {
		summary = append(summary, fmt.Sprintf("%s Rejected selections: %d", detailsMark, stats.Rejected))
	}

	if _, err := fmt.Fprintln(p.writer, itemCard("Review Complete", summary...)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

func (p *Prompter) writeOptions(item model.MappedItem) error {
	lines := []string{promptText("Options")}
	if item.HasSuggestion() {
		lines = append(lines, fmt.Sprintf("  [C] Confirm suggestion: %s", confirmedStyle.Render(item.Suggestion())))
	} else {
		lines = append(lines, "  [C] Confirm that nothing on the list matches")
	}
	lines = append(lines,
		"  [R] Reject and pick the correct list item",
		"  [N] Mark as no match",
		"  [S] Skip for now",
		"",
	)

	if _, err := fmt.Fprintln(p.writer, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write options: %w", err)
	}
	return nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprintf(p.writer, "%s ", promptText(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// promptSelection reads a list position, an exact list item or "n". A typed
// name is passed through unchecked so the engine decides membership.
func (p *Prompter) promptSelection(ctx context.Context, list []string) (model.Decision, error) {
	if len(list) > 0 {
		if _, err := fmt.Fprintln(p.writer, FormatInfo("Reference list:")); err != nil {
			return model.Decision{}, fmt.Errorf("failed to write reference list: %w", err)
		}
		for i, item := range list {
			if _, err := fmt.Fprintf(p.writer, "  %3d. %s\n", i+1, item); err != nil {
				return model.Decision{}, fmt.Errorf("failed to write reference list: %w", err)
			}
		}
	}

	for {
		if _, err := fmt.Fprintf(p.writer, "%s ", promptText("Number, exact item name, or 'n' for no match")); err != nil {
			return model.Decision{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return model.Decision{}, err
		}

		decision, err := parseSelection(input, list)
		if err == nil {
			return decision, nil
		}

		if _, werr := fmt.Fprintln(p.writer, FormatError(err.Error())); werr != nil {
			slog.Warn("Failed to write error message", "error", werr)
		}
	}
}

var errEmptySelection = errors.New("enter a number, an item name or 'n'")

func parseSelection(input string, list []string) (model.Decision, error) {
	switch {
	case input == "":
		return model.Decision{}, errEmptySelection
	case strings.EqualFold(input, "n"):
		return model.MarkNoMatch(), nil
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(list) {
			return model.Decision{}, fmt.Errorf("number must be between 1 and %d", len(list))
		}
		return model.Correct(list[n-1]), nil
	}

	return model.Correct(input), nil
}

func (p *Prompter) updateProgress(req model.ReviewRequest) {
	if !p.showProgress || req.Position == p.lastPosition {
		return
	}
	p.lastPosition = req.Position

	if p.progressBar == nil {
		p.progressBar = progressbar.NewOptions(req.Total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Reviewing items...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}

	if err := p.progressBar.Set(req.Position - 1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	if _, err := fmt.Fprintln(p.writer); err != nil {
		slog.Warn("Failed to write newline", "error", err)
	}
}

func formatItem(item model.MappedItem) []string {
	lines := []string{itemNameStyle.Render(item.InvoiceItem), ""}
	if item.ProductCode != nil {
		lines = append(lines, "Code:     "+*item.ProductCode)
	}
	lines = append(lines,
		"Quantity: "+formatNumber(item.Quantity),
		"Price:    "+formatNumber(item.Price),
		"Amount:   "+formatNumber(item.Amount),
		"",
		fmt.Sprintf("%s Suggestion: %s", modelMark, confirmedStyle.Render(resolvedLabel(item.SuggestedItem))),
	)
	if item.Notes != "" {
		lines = append(lines, mutedStyle.Render(item.Notes))
	}
	return lines
}

var _ engine.Reviewer = (*Prompter)(nil)
