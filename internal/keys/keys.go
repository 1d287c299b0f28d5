package keys

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding
	Mark   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Inbox actions
	Delete     key.Binding
	BulkDelete key.Binding
	BulkSeen   key.Binding
	Overview   key.Binding

	// Message actions
	Analyze    key.Binding
	Reply      key.Binding
	Translate  key.Binding
	SaveSource key.Binding

	// AI panel redraft tones
	Tone1 key.Binding
	Tone2 key.Binding
	Tone3 key.Binding

	// Identities
	Identities  key.Binding
	NewIdentity key.Binding
	Export      key.Binding
	Theme       key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "mark"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		BulkDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete marked"),
		),
		BulkSeen: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark marked read"),
		),
		Overview: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "inbox overview"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analyze"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "draft reply"),
		),
		Translate: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "translate"),
		),
		SaveSource: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save source"),
		),
		Tone1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "professional"),
		),
		Tone2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "friendly"),
		),
		Tone3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "angry"),
		),
		Identities: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "identities"),
		),
		NewIdentity: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new identity"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle theme"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.Mark, k.Delete, k.BulkDelete, k.BulkSeen, k.Overview},
		{k.Analyze, k.Reply, k.Translate, k.SaveSource},
		{k.Tone1, k.Tone2, k.Tone3},
		{k.Identities, k.NewIdentity, k.Export, k.Theme},
	}
}

// Section is a titled group of bindings for one view.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Section titles, also used to pick the leading section of the help
// overlay.
const (
	SectionInbox      = "Inbox"
	SectionMessage    = "Message"
	SectionAI         = "AI panel"
	SectionIdentities = "Identities"
	SectionGlobal     = "Everywhere"
)

// Sections groups the bindings by the view that handles them.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{SectionInbox, []key.Binding{k.Up, k.Down, k.Select, k.Mark, k.Search, k.Delete, k.BulkDelete, k.BulkSeen, k.Overview, k.Refresh, k.Identities, k.Quit}},
		{SectionMessage, []key.Binding{k.Analyze, k.Reply, k.Translate, k.SaveSource, k.Delete, k.Back}},
		{SectionAI, []key.Binding{k.Tone1, k.Tone2, k.Tone3, k.Back}},
		{SectionIdentities, []key.Binding{k.Up, k.Down, k.Select, k.NewIdentity, k.Delete, k.Export, k.Theme, k.Back}},
		{SectionGlobal, []key.Binding{k.Command, k.Help}},
	}
}

// Tone returns the reply tone bound to a redraft key, if any.
func (k *KeyMap) Tone(msg fmt.Stringer) (string, bool) {
	switch {
	case key.Matches(msg, k.Tone1):
		return "Professional", true
	case key.Matches(msg, k.Tone2):
		return "Friendly", true
	case key.Matches(msg, k.Tone3):
		return "Angry", true
	}
	return "", false
}
