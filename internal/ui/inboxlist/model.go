package inboxlist

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// SelectedMessageMsg is sent when a user opens a message.
type SelectedMessageMsg struct {
	ID string
}

// DeleteRequestMsg asks the parent to delete one message.
type DeleteRequestMsg struct {
	ID string
}

// BulkAction names an operation applied to all marked messages.
type BulkAction string

const (
	BulkDelete BulkAction = "delete"
	BulkSeen   BulkAction = "seen"
)

// BulkRequestMsg asks the parent to apply Action to every id in IDs.
type BulkRequestMsg struct {
	Action BulkAction
	IDs    []string
}

// Model is the inbox list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	messages    []model.MailMessage
	marked      map[string]bool
	query       string
	searchMode  bool
	searchInput textinput.Model
	address     string
	width       int
	height      int
}

// New creates a new inbox list model.
func New(k *keys.KeyMap, width, height int) Model {
	marked := make(map[string]bool)
	delegate := ItemDelegate{marked: marked, now: time.Now}

	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search sender or subject..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		marked:      marked,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Update handles messages for the inbox list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The filter is
// applied as the user types.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.query = ""
		cmd := m.refreshItems()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = strings.TrimSpace(m.searchInput.Value())
	refresh := m.refreshItems()
	return m, tea.Batch(cmd, refresh)
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		sel, ok := m.SelectedMessage()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMessageMsg{ID: sel.ID}
		}

	case key.Matches(msg, m.keys.Mark):
		if sel, ok := m.SelectedMessage(); ok {
			m.toggleMark(sel.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.SelectedMessage()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return DeleteRequestMsg{ID: sel.ID}
		}

	case key.Matches(msg, m.keys.BulkDelete):
		return m, m.bulkRequest(BulkDelete)

	case key.Matches(msg, m.keys.BulkSeen):
		return m, m.bulkRequest(BulkSeen)

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		cmd := m.searchInput.Focus()
		return m, cmd
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) toggleMark(id string) {
	if m.marked[id] {
		delete(m.marked, id)
		return
	}
	m.marked[id] = true
}

// bulkRequest emits a BulkRequestMsg for the marked messages. Without marks
// it does nothing.
func (m Model) bulkRequest(action BulkAction) tea.Cmd {
	ids := m.Marked()
	if len(ids) == 0 {
		return nil
	}
	return func() tea.Msg {
		return BulkRequestMsg{Action: action, IDs: ids}
	}
}

// SetMessages replaces the displayed messages. Marks on messages that are
// gone are dropped.
func (m *Model) SetMessages(msgs []model.MailMessage) tea.Cmd {
	m.messages = msgs

	present := make(map[string]bool, len(msgs))
	for _, msg := range msgs {
		present[msg.ID] = true
	}
	for id := range m.marked {
		if !present[id] {
			delete(m.marked, id)
		}
	}

	return m.refreshItems()
}

// SetAddress sets the address shown in the empty state.
func (m *Model) SetAddress(address string) {
	m.address = address
}

// Marked returns the ids of marked messages in display order.
func (m Model) Marked() []string {
	var ids []string
	for _, msg := range m.messages {
		if m.marked[msg.ID] {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// ClearMarks unmarks every message.
func (m *Model) ClearMarks() {
	for id := range m.marked {
		delete(m.marked, id)
	}
}

// SelectedMessage returns the message under the cursor.
func (m Model) SelectedMessage() (model.MailMessage, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.MailMessage{}, false
	}
	return item.Msg, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Visible returns the messages matching the current search.
func (m Model) Visible() []model.MailMessage {
	return filterMessages(m.messages, m.query)
}

func (m *Model) refreshItems() tea.Cmd {
	visible := filterMessages(m.messages, m.query)
	items := make([]list.Item, len(visible))
	for i, msg := range visible {
		items[i] = MessageItem{Msg: msg}
	}
	return m.list.SetItems(items)
}

// filterMessages keeps messages whose sender, address, subject or snippet
// contain query, case-insensitively.
func filterMessages(msgs []model.MailMessage, query string) []model.MailMessage {
	if query == "" {
		return msgs
	}
	q := strings.ToLower(query)

	var out []model.MailMessage
	for _, msg := range msgs {
		haystack := strings.ToLower(strings.Join(
			[]string{msg.FromName, msg.From, msg.Subject, msg.Intro}, "\n",
		))
		if strings.Contains(haystack, q) {
			out = append(out, msg)
		}
	}
	return out
}

// View renders the inbox list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no messages are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No messages match \"" + m.query + "\".\nPress / then esc to clear.")
	}

	text := "Waiting for incoming mail..."
	if m.address != "" {
		text += "\n\nSend something to " + m.address
	}
	return style.Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
