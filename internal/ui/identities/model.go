package identities

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// Mode represents the current sub-view of the identities screen.
type Mode int

const (
	ModeList Mode = iota
	ModeConfirmDelete
	ModeBusy
)

// CloseMsg signals the parent to leave the identities view.
type CloseMsg struct{}

// SwitchMsg asks the parent to make ID the active identity.
type SwitchMsg struct {
	ID string
}

// CreateMsg asks the parent to create a new identity.
type CreateMsg struct{}

// RemoveMsg asks the parent to destroy identity ID.
type RemoveMsg struct {
	ID string
}

// ExportMsg asks the parent to write a backup of all identities.
type ExportMsg struct{}

// CycleThemeMsg asks the parent to switch to the next theme.
type CycleThemeMsg struct{}

// confirmBinding lives on the heap so huh's Value pointer stays valid
// across Bubble Tea model copies.
type confirmBinding struct {
	confirmed bool
}

// Model is the Bubble Tea model for managing identities.
type Model struct {
	mode        Mode
	identities  []model.Mailbox
	activeID    string
	selectedIdx int
	themeName   string

	confirmDelete *huh.Form
	confirm       *confirmBinding

	spinner   spinner.Model
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new identities view model.
func New(k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		confirm: &confirmBinding{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// SetIdentities replaces the displayed identities and marks the active one.
// The cursor moves to the active identity.
func (m *Model) SetIdentities(ids []model.Mailbox, activeID string) {
	m.identities = ids
	m.activeID = activeID
	m.selectedIdx = 0
	for i, id := range ids {
		if id.ID == activeID {
			m.selectedIdx = i
			break
		}
	}
}

// SetTheme sets the theme name shown in the footer.
func (m *Model) SetTheme(name string) {
	m.themeName = name
}

// SetStatus shows a transient message and leaves the busy state.
func (m *Model) SetStatus(msg string) {
	m.statusMsg = msg
	m.mode = ModeList
}

// Busy shows a spinner while the parent works on a request.
func (m *Model) Busy(status string) tea.Cmd {
	m.mode = ModeBusy
	m.statusMsg = status
	return m.spinner.Tick
}

// Mode returns the current sub-view.
func (m Model) Mode() Mode {
	return m.mode
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.mode == ModeBusy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			return m.handleListKeys(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeBusy:
			return m, nil
		}
	}

	if m.mode == ModeConfirmDelete {
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// handleListKeys processes key events in list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Select):
		sel, ok := m.selected()
		if !ok || sel.ID == m.activeID {
			return m, nil
		}
		return m, func() tea.Msg { return SwitchMsg{ID: sel.ID} }

	case key.Matches(msg, m.keys.NewIdentity):
		return m, func() tea.Msg { return CreateMsg{} }

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.confirm.confirmed = false
		m.confirmDelete = m.buildDeleteConfirmForm()
		m.mode = ModeConfirmDelete
		return m, m.confirmDelete.Init()

	case key.Matches(msg, m.keys.Export):
		return m, func() tea.Msg { return ExportMsg{} }

	case key.Matches(msg, m.keys.Theme):
		return m, func() tea.Msg { return CycleThemeMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.identities) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.identities)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.identities) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.identities) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) selected() (model.Mailbox, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.identities) {
		return model.Mailbox{}, false
	}
	return m.identities[m.selectedIdx], true
}

func (m *Model) buildDeleteConfirmForm() *huh.Form {
	address := ""
	if sel, ok := m.selected(); ok {
		address = sel.Address
	}

	description := "The account is deleted on the server and its mail is lost."
	if len(m.identities) == 1 {
		description += " A new identity will be created to replace it."
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Destroy %s?", address)).
				Description(description).
				Affirmative("Yes, destroy").
				Negative("Cancel").
				Value(&m.confirm.confirmed),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	if m.confirmDelete.State == huh.StateCompleted {
		m.mode = ModeList
		sel, ok := m.selected()
		if m.confirm.confirmed && ok {
			return m, func() tea.Msg { return RemoveMsg{ID: sel.ID} }
		}
		return m, nil
	}
	if m.confirmDelete.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// View renders the identities screen based on the current mode.
func (m Model) View() string {
	if m.mode == ModeConfirmDelete && m.confirmDelete != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(m.confirmDelete.View())
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Identities"))
	b.WriteString("\n\n")

	if len(m.identities) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render("No identities.\nPress 'n' to create one."))
	} else {
		for i, id := range m.identities {
			b.WriteString(m.renderIdentity(i, id))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		status := m.statusMsg
		if m.mode == ModeBusy {
			status = m.spinner.View() + " " + status
		}
		b.WriteString(statusStyle.Render(status))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		fmt.Sprintf("enter switch | n new | d destroy | x export | t theme (%s) | esc back", m.themeName),
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderIdentity(idx int, id model.Mailbox) string {
	marker := "  "
	if id.ID == m.activeID {
		marker = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("✓ ")
	}

	line := marker + id.Address
	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}
