package help

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/theme"
)

// CloseMsg signals the parent to close the help overlay.
type CloseMsg struct{}

// Model is the help overlay. Bindings are listed per view, with the view
// help was opened from first.
type Model struct {
	keys   *keys.KeyMap
	lead   string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	return Model{keys: keys, width: width, height: height}
}

// Focus puts the named section first. An unknown title keeps the default
// order.
func (m *Model) Focus(section string) {
	m.lead = section
}

// Update handles messages for the help view. Any key closes it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, nil
}

// sections returns the key map sections with the lead section first.
func (m Model) sections() []keys.Section {
	all := m.keys.Sections()
	out := make([]keys.Section, 0, len(all))
	for _, s := range all {
		if s.Title == m.lead {
			out = append(out, s)
		}
	}
	for _, s := range all {
		if s.Title != m.lead {
			out = append(out, s)
		}
	}
	return out
}

// View renders the help overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("GhostMail Keyboard Shortcuts")

	keyStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(8)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)

	var blocks []string
	for i, s := range m.sections() {
		heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
		if i == 0 && s.Title == m.lead {
			heading = heading.Foreground(theme.ColorYellow)
		}

		var b strings.Builder
		b.WriteString(heading.Render(s.Title))
		for _, binding := range s.Bindings {
			h := binding.Help()
			b.WriteString("\n" + keyStyle.Render(h.Key) + descStyle.Render(h.Desc))
		}
		blocks = append(blocks, lipgloss.NewStyle().MarginRight(4).MarginBottom(1).Render(b.String()))
	}

	// Two columns when the overlay is wide enough.
	body := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	if m.width >= 80 && len(blocks) > 1 {
		half := (len(blocks) + 1) / 2
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.JoinVertical(lipgloss.Left, blocks[:half]...),
			lipgloss.JoinVertical(lipgloss.Left, blocks[half:]...),
		)
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
