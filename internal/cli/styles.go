// Package cli renders mapping results and runs the interactive review
// prompter in a terminal.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette for mapping output. Confirmed and rejected items carry the
// strongest colors so a long review stays scannable.
var (
	accentColor    = lipgloss.Color("#5B8DEF")
	confirmedColor = lipgloss.Color("#4ECDC4")
	attentionColor = lipgloss.Color("#FFE66D")
	rejectedColor  = lipgloss.Color("#FF6B6B")
	mutedColor     = lipgloss.Color("#7A7A7A")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	confirmedStyle = lipgloss.NewStyle().Foreground(confirmedColor)
	attentionStyle = lipgloss.NewStyle().Foreground(attentionColor)
	rejectedStyle  = lipgloss.NewStyle().Foreground(rejectedColor)
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	itemNameStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

const (
	invoiceMark  = "🧾"
	modelMark    = "🤖"
	memoryMark   = "🧠"
	detailsMark  = "•"
	promptMarker = "›"
)

// FormatSuccess marks a message as completed.
func FormatSuccess(message string) string {
	return confirmedStyle.Render("✓ " + message)
}

// FormatError marks a message as failed or rejected.
func FormatError(message string) string {
	return rejectedStyle.Render("✗ " + message)
}

// FormatWarning marks a message that needs the user's attention.
func FormatWarning(message string) string {
	return attentionStyle.Render("! " + message)
}

// FormatInfo renders a secondary message.
func FormatInfo(message string) string {
	return mutedStyle.Render(message)
}

// FormatTitle renders a section heading for invoice output.
func FormatTitle(title string) string {
	return titleStyle.Render(invoiceMark + " " + title)
}

func promptText(label string) string {
	return titleStyle.Render(label + " " + promptMarker)
}

// itemCard frames a review item or summary with its heading on the first
// line. Every line of the card has the same display width.
func itemCard(heading string, lines ...string) string {
	body := append([]string{titleStyle.Render(heading)}, lines...)
	return cardStyle.Render(strings.Join(body, "\n"))
}
