// Package tui provides a full-screen review interface for needs-review items.
package tui

import (
	"fmt"

	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type mode int

const (
	modeChoose mode = iota
	modePick
)

// referenceItem is one entry of the reference list picker.
type referenceItem struct {
	name     string
	position int
}

func (i referenceItem) Title() string       { return i.name }
func (i referenceItem) Description() string { return fmt.Sprintf("#%d", i.position) }
func (i referenceItem) FilterValue() string { return i.name }

// Model is the state of one item review.
type Model struct {
	theme    themes.Theme
	keys     KeyMap
	help     help.Model
	picker   list.Model
	req      model.ReviewRequest
	decision model.Decision
	mode     mode
	width    int
	height   int
	decided  bool
	quitting bool
}

func newModel(req model.ReviewRequest, theme themes.Theme) Model {
	items := make([]list.Item, len(req.ReferenceList))
	for i, name := range req.ReferenceList {
		items[i] = referenceItem{name: name, position: i + 1}
	}

	picker := list.New(items, list.NewDefaultDelegate(), defaultWidth, defaultHeight-6)
	picker.Title = "Reference list"
	picker.SetShowHelp(false)
	picker.KeyMap.Quit.SetEnabled(false)
	picker.KeyMap.ForceQuit.SetEnabled(false)

	return Model{
		theme:  theme,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		picker: picker,
		req:    req,
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Decision returns the chosen decision, if any.
func (m Model) Decision() (model.Decision, bool) {
	return m.decision, m.decided
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.picker.SetSize(msg.Width, max(msg.Height-6, 4))
		return m, nil

	case tea.KeyMsg:
		if m.mode == modePick {
			return m.updatePick(msg)
		}
		return m.updateChoose(msg)
	}

	return m, nil
}

func (m Model) updateChoose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		return m.decide(model.Confirm())
	case key.Matches(msg, m.keys.NoMatch):
		return m.decide(model.MarkNoMatch())
	case key.Matches(msg, m.keys.Skip):
		return m.decide(model.Skip())
	case key.Matches(msg, m.keys.Reject):
		m.mode = modePick
		return m, nil
	}
	return m, nil
}

func (m Model) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Select):
			if selected, ok := m.picker.SelectedItem().(referenceItem); ok {
				return m.decide(model.Correct(selected.name))
			}
			return m, nil
		case key.Matches(msg, m.keys.Back) && m.picker.FilterState() == list.Unfiltered:
			m.mode = modeChoose
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) decide(d model.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.decided = true
	return m, tea.Quit
}
