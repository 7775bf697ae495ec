package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.decided || m.quitting {
		return ""
	}

	header := m.theme.Title.Render(fmt.Sprintf("Review item %d of %d", m.req.Position, m.req.Total))

	var sections []string
	sections = append(sections, header)

	if m.req.Rejected != nil {
		sections = append(sections, m.theme.StatusError.Render(m.req.Rejected.Error()))
	}

	if m.mode == modePick {
		sections = append(sections,
			m.theme.Subtitle.Render("Mapping: "+m.req.Item.InvoiceItem),
			m.picker.View(),
			m.help.View(pickHelp{keys: m.keys}),
		)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections,
		m.theme.RoundedBox.Width(min(m.width-4, 72)).Render(m.itemDetails()),
		m.help.View(m.keys),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) itemDetails() string {
	item := m.req.Item

	var b strings.Builder
	b.WriteString(m.theme.Bold.Render(item.InvoiceItem))
	b.WriteString("\n\n")

	if item.ProductCode != nil {
		fmt.Fprintf(&b, "Code:     %s\n", *item.ProductCode)
	}
	fmt.Fprintf(&b, "Quantity: %s\n", number(item.Quantity))
	fmt.Fprintf(&b, "Price:    %s\n", number(item.Price))
	fmt.Fprintf(&b, "Amount:   %s\n\n", number(item.Amount))

	if item.HasSuggestion() {
		b.WriteString("Suggestion: " + m.theme.StatusSuccess.Render(item.Suggestion()))
	} else {
		b.WriteString("Suggestion: " + m.theme.StatusWarning.Render("(no match)"))
	}

	if item.Notes != "" {
		b.WriteString("\n" + m.theme.Muted.Render(item.Notes))
	}

	return b.String()
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
