package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCard(t *testing.T) {
	card := itemCard("Item 1 of 3", "Mascarpone Dessert", "", "Quantity: 2")

	lines := strings.Split(card, "\n")
	require.Len(t, lines, 6, "border, heading, three body lines, border")
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "╰"))
	assert.Contains(t, lines[1], "Item 1 of 3")
	assert.Contains(t, lines[2], "Mascarpone Dessert")
	assert.Contains(t, lines[4], "Quantity: 2")

	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		assert.Equal(t, width, lipgloss.Width(line), "line %d", i)
	}
}

func TestPrompter_Decide_RendersItemCard(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("c\n"), &out)

	_, err := p.Decide(context.Background(), reviewRequest())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Item 1 of 3")
	assert.Contains(t, text, "Mascarpone Dessert")
	assert.Contains(t, text, "Suggestion: Margherita")
	assert.Contains(t, text, "matched by name")
	assert.Contains(t, text, "Options "+promptMarker)
	assert.Contains(t, text, "Choice "+promptMarker+" ")
}
