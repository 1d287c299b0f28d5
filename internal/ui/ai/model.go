package ai

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "github.com/nhle/ghostmail/internal/ai"
	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// AIPanelCloseMsg signals the parent to close the AI panel.
type AIPanelCloseMsg struct{}

// RedraftMsg asks the parent for a new reply draft in Tone.
type RedraftMsg struct {
	MessageID string
	Tone      string
}

// ResultMsg carries a finished AI result to the panel. Analysis and Inbox
// are set for the structured kinds; Text for replies and translations.
type ResultMsg struct {
	Kind      aiservice.Kind
	MessageID string
	Label     string
	Text      string
	Analysis  *model.Analysis
	Inbox     *model.InboxAnalysis
}

// Model is the AI panel. It shows one result at a time.
type Model struct {
	kind      aiservice.Kind
	messageID string
	label     string
	result    *ResultMsg

	loading    bool
	spinner    spinner.Model
	viewport   viewport.Model
	configured bool
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a new AI panel model. When configured is false the panel
// notes that canned responses are shown.
func New(configured bool, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(width-4, panelHeight(height))
	vp.Style = lipgloss.NewStyle()

	return Model{
		spinner:    sp,
		viewport:   vp,
		configured: configured,
		keys:       k,
		width:      width,
		height:     height,
	}
}

func panelHeight(height int) int {
	h := height - 8
	if h < 4 {
		h = 4
	}
	return h
}

// Start puts the panel into the loading state for a new request.
func (m *Model) Start(kind aiservice.Kind, messageID, label string) tea.Cmd {
	m.kind = kind
	m.messageID = messageID
	m.label = label
	m.result = nil
	m.loading = true
	m.refreshViewport()
	return m.spinner.Tick
}

// Show displays a result without a request, e.g. one recalled from history.
func (m *Model) Show(res ResultMsg) {
	m.kind = res.Kind
	m.messageID = res.MessageID
	m.label = res.Label
	m.result = &res
	m.loading = false
	m.refreshViewport()
}

// Update handles messages for the AI panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		// Results for an older request are ignored.
		if msg.Kind != m.kind || msg.MessageID != m.messageID || msg.Label != m.label {
			return m, nil
		}
		m.Show(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return AIPanelCloseMsg{} }
		}
		if tone, ok := m.keys.Tone(msg); ok && m.messageID != "" && !m.loading {
			id := m.messageID
			return m, func() tea.Msg { return RedraftMsg{MessageID: id, Tone: tone} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

func (m Model) title() string {
	switch m.kind {
	case aiservice.KindAnalysis:
		return "Security Analysis"
	case aiservice.KindReply:
		return fmt.Sprintf("Reply Draft (%s)", m.label)
	case aiservice.KindTranslation:
		return fmt.Sprintf("Translation (%s)", m.label)
	case aiservice.KindInbox:
		return "Inbox Overview"
	default:
		return "AI Assistant"
	}
}

// renderBody builds the viewport content for the current state.
func (m Model) renderBody() string {
	gray := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)

	if m.loading {
		return m.spinner.View() + " " + gray.Render("Thinking...")
	}
	if m.result == nil {
		return gray.Render("Nothing to show yet.")
	}

	width := m.width - 8
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width).Foreground(theme.ColorWhite)

	switch {
	case m.result.Analysis != nil:
		return renderAnalysis(*m.result.Analysis, wrap)
	case m.result.Inbox != nil:
		return renderInbox(*m.result.Inbox, wrap)
	default:
		return wrap.Render(m.result.Text)
	}
}

func renderAnalysis(a model.Analysis, wrap lipgloss.Style) string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)

	lines := []string{
		label.Render("Risk:  ") + theme.RiskStyle(string(a.RiskLevel)).Render(string(a.RiskLevel)),
		label.Render("Score: ") + theme.ScoreStyle(a.PhishingScore).Render(fmt.Sprintf("%d/100", a.PhishingScore)),
		"",
		wrap.Render(a.Summary),
	}

	if len(a.ActionableItems) > 0 {
		lines = append(lines, "", label.Render("Action items:"))
		for _, item := range a.ActionableItems {
			lines = append(lines, wrap.Render("- "+item))
		}
	}

	return strings.Join(lines, "\n")
}

func renderInbox(a model.InboxAnalysis, wrap lipgloss.Style) string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)

	lines := []string{wrap.Render(a.Overview)}

	if a.UrgentCount > 0 {
		lines = append(lines, "", lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed).
			Render(fmt.Sprintf("%d urgent", a.UrgentCount)))
	}

	if len(a.Categories) > 0 {
		lines = append(lines, "", label.Render("Categories:"))
		for _, c := range a.Categories {
			lines = append(lines, fmt.Sprintf("  %-20s %d", c.Name, c.Count))
		}
	}

	if len(a.ExtractedCodes) > 0 {
		lines = append(lines, "", label.Render("Codes:"))
		for _, c := range a.ExtractedCodes {
			lines = append(lines, fmt.Sprintf("  %s  %s",
				theme.CodeStyle.Render(c.Code),
				label.Render(c.Source),
			))
		}
	}

	return strings.Join(lines, "\n")
}

// View renders the AI panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)

	hints := "esc close"
	if m.messageID != "" {
		hints = "1 professional | 2 friendly | 3 angry | esc close"
	}
	footer := []string{theme.HelpStyle.Render(hints)}
	if !m.configured {
		footer = append(footer, theme.HelpStyle.Render(
			"No Gemini API key configured; set GEMINI_API_KEY for real responses.",
		))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		append([]string{
			titleStyle.Render(m.title()),
			m.viewport.View(),
			separator,
		}, footer...)...,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the AI panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = panelHeight(height)
	m.refreshViewport()
}

// Loading reports whether a request is outstanding.
func (m Model) Loading() bool {
	return m.loading
}

// Reset clears the panel.
func (m *Model) Reset() {
	m.kind = ""
	m.messageID = ""
	m.label = ""
	m.result = nil
	m.loading = false
	m.refreshViewport()
}
