package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the opened message, or the error that prevented
// loading it.
type DetailLoadedMsg struct {
	Message *model.FullMessage
	Err     error
}

// Action is a message-level operation requested from the detail view.
type Action string

const (
	ActionDelete     Action = "delete"
	ActionAnalyze    Action = "analyze"
	ActionReply      Action = "reply"
	ActionTranslate  Action = "translate"
	ActionSaveSource Action = "source"
)

// ActionMsg signals the parent to execute an action on the open message.
type ActionMsg struct {
	Action    Action
	MessageID string
}

// Model is the message detail view component.
type Model struct {
	msg      *model.FullMessage
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetMessage(msg.Message, msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}
		case key.Matches(msg, m.keys.Delete):
			return m, m.action(ActionDelete)
		case key.Matches(msg, m.keys.Analyze):
			return m, m.action(ActionAnalyze)
		case key.Matches(msg, m.keys.Reply):
			return m, m.action(ActionReply)
		case key.Matches(msg, m.keys.Translate):
			return m, m.action(ActionTranslate)
		case key.Matches(msg, m.keys.SaveSource):
			return m, m.action(ActionSaveSource)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a Action) tea.Cmd {
	if m.msg == nil || m.loading {
		return nil
	}
	id := m.msg.ID
	return func() tea.Msg {
		return ActionMsg{Action: a, MessageID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return placeholder.Render("Loading message...")
	case m.err != nil:
		return placeholder.Render("Could not load message:\n" + m.err.Error() + "\n\nPress esc to go back.")
	case m.msg == nil:
		return placeholder.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.msg == nil {
		return ""
	}

	msg := m.msg
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) {
		sections = append(sections, fmt.Sprintf("%s %s",
			metaStyle.Render(fmt.Sprintf("%-6s", label+":")),
			valStyle.Render(value),
		))
	}

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	meta("From", from)
	if len(msg.To) > 0 {
		meta("To", strings.Join(msg.To, ", "))
	}
	if !msg.Date.IsZero() {
		meta("Date", fmt.Sprintf("%s (%s)",
			msg.Date.Local().Format("2006-01-02 15:04"),
			humanize.Time(msg.Date),
		))
	}
	if msg.Size > 0 {
		meta("Size", humanize.Bytes(uint64(msg.Size)))
	}

	body := content.MessageBody(msg)

	if codes := content.ExtractCodes(msg.Subject + "\n" + body); len(codes) > 0 {
		rendered := make([]string, len(codes))
		for i, c := range codes {
			rendered[i] = theme.CodeStyle.Render(c)
		}
		sections = append(sections, "")
		sections = append(sections, metaStyle.Render("Codes:"))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	} else if m.width > 4 {
		body = lipgloss.NewStyle().Width(m.width - 4).Render(body)
	}
	sections = append(sections, body)

	if len(msg.Attachments) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Attachments (%d)", len(msg.Attachments)),
		))

		for _, a := range msg.Attachments {
			sections = append(sections, fmt.Sprintf("  %s  %s  %s",
				valStyle.Render(a.Filename),
				metaStyle.Render(a.ContentType),
				metaStyle.Render(humanize.Bytes(uint64(a.Size))),
			))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetMessage updates the message being displayed and re-renders the content.
func (m *Model) SetMessage(msg *model.FullMessage, err error) {
	m.msg = msg
	m.err = err
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Message returns the open message, if any.
func (m Model) Message() *model.FullMessage {
	return m.msg
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.err = nil
	}
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
