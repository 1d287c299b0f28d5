package help

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/keys"
)

func TestViewListsBindings(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 220, 60)
	out := m.View()
	assert.Contains(t, out, "draft reply")
	assert.Contains(t, out, "identities")
	assert.Contains(t, out, keys.SectionMessage)
}

func TestFocusPutsSectionFirst(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 80)

	m.Focus(keys.SectionAI)
	require.Equal(t, keys.SectionAI, m.sections()[0].Title)
	out := m.View()
	assert.Less(t, strings.Index(out, keys.SectionAI), strings.Index(out, keys.SectionInbox))

	m.Focus("nowhere")
	assert.Equal(t, keys.SectionInbox, m.sections()[0].Title)
	assert.Len(t, m.sections(), len(keys.DefaultKeyMap().Sections()))
}

func TestAnyKeyCloses(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 220, 60)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}
