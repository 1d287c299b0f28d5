package keys

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestToneKeys(t *testing.T) {
	k := DefaultKeyMap()

	tests := []struct {
		key  string
		tone string
		ok   bool
	}{
		{"1", "Professional", true},
		{"2", "Friendly", true},
		{"3", "Angry", true},
		{"4", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)}
			tone, ok := k.Tone(msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tone, tone)
		})
	}
}

func TestFullHelpCoversBindings(t *testing.T) {
	k := DefaultKeyMap()
	count := 0
	for _, group := range k.FullHelp() {
		count += len(group)
	}
	assert.Equal(t, 25, count)
}

func TestSectionsCoverViewBindings(t *testing.T) {
	k := DefaultKeyMap()

	titles := map[string][]string{}
	for _, s := range k.Sections() {
		for _, b := range s.Bindings {
			titles[s.Title] = append(titles[s.Title], b.Help().Desc)
		}
	}

	assert.Contains(t, titles[SectionMessage], "draft reply")
	assert.Contains(t, titles[SectionAI], "friendly")
	assert.Contains(t, titles[SectionIdentities], "new identity")
	assert.Contains(t, titles[SectionInbox], "delete marked")
	assert.Contains(t, titles[SectionGlobal], "command palette")
}
