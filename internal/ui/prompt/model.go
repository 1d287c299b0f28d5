package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// ToneChosenMsg is dispatched when a reply tone was picked.
type ToneChosenMsg struct {
	MessageID string
	Tone      string
}

// LanguageChosenMsg is dispatched when a translation language was entered.
type LanguageChosenMsg struct {
	MessageID string
	Language  string
}

// CancelMsg is dispatched when the user aborts the prompt.
type CancelMsg struct{}

type kind int

const (
	kindTone kind = iota
	kindLanguage
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	tone     string
	language string
}

// Model is a small modal form asking for a reply tone or a target language.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	kind      kind
	messageID string
	width     int
	height    int
}

// New creates a new prompt model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{tone: model.ReplyTones[0], language: "English"},
		width:  width,
		height: height,
	}
}

// AskTone starts a tone selection for messageID.
func (m *Model) AskTone(messageID string) tea.Cmd {
	m.kind = kindTone
	m.messageID = messageID
	m.form = m.buildToneForm()
	return m.form.Init()
}

// AskLanguage starts a language input for messageID. The last language
// entered is pre-filled.
func (m *Model) AskLanguage(messageID string) tea.Cmd {
	m.kind = kindLanguage
	m.messageID = messageID
	m.form = m.buildLanguageForm()
	return m.form.Init()
}

// Update handles messages for the prompt.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the prompt.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Draft Reply"
	if m.kind == kindLanguage {
		titleText = "Translate"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildToneForm() *huh.Form {
	opts := make([]huh.Option[string], len(model.ReplyTones))
	for i, tone := range model.ReplyTones {
		opts[i] = huh.NewOption(tone, tone)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tone").
				Description("How should the reply sound?").
				Options(opts...).
				Value(&m.fb.tone),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildLanguageForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target language").
				Placeholder("English").
				Value(&m.fb.language).
				Validate(validateRequired("Language")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) handleSubmit() tea.Cmd {
	id := m.messageID

	if m.kind == kindLanguage {
		lang := strings.TrimSpace(m.fb.language)
		return func() tea.Msg { return LanguageChosenMsg{MessageID: id, Language: lang} }
	}

	tone := m.fb.tone
	return func() tea.Msg { return ToneChosenMsg{MessageID: id, Tone: tone} }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
