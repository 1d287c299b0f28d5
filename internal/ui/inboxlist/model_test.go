package inboxlist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newList(t *testing.T) Model {
	t.Helper()

	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetMessages([]model.MailMessage{
		{ID: "m1", From: "shop@example.com", Subject: "Your order"},
		{ID: "m2", From: "noreply@bank.test", FromName: "Bank", Subject: "Code 482913"},
		{ID: "m3", From: "friend@example.com", Subject: "Lunch?", Seen: true},
	})
	return m
}

func TestSelectEmitsOpen(t *testing.T) {
	m := newList(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedMessageMsg{ID: "m1"}, cmd())
}

func TestMarkAndBulkDelete(t *testing.T) {
	m := newList(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"m1", "m3"}, m.Marked())

	_, cmd := m.Update(runes("D"))
	require.NotNil(t, cmd)
	assert.Equal(t, BulkRequestMsg{Action: BulkDelete, IDs: []string{"m1", "m3"}}, cmd())

	_, cmd = m.Update(runes("M"))
	require.NotNil(t, cmd)
	assert.Equal(t, BulkSeen, cmd().(BulkRequestMsg).Action)
}

func TestBulkWithoutMarksDoesNothing(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(runes("D"))
	assert.Nil(t, cmd)
}

func TestMarkToggles(t *testing.T) {
	m := newList(t)
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

	m, _ = m.Update(space)
	m, _ = m.Update(space)
	assert.Empty(t, m.Marked())
}

func TestSetMessagesDropsVanishedMarks(t *testing.T) {
	m := newList(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Equal(t, []string{"m1"}, m.Marked())

	m.SetMessages([]model.MailMessage{{ID: "m2"}})
	assert.Empty(t, m.Marked())
}

func TestDeleteEmitsRequest(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(runes("d"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteRequestMsg{ID: "m1"}, cmd())
}

func TestSearchFiltersAsYouType(t *testing.T) {
	m := newList(t)

	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())
	for _, r := range "bank" {
		m, _ = m.Update(runes(string(r)))
	}

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "m2", visible[0].ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Len(t, m.Visible(), 3)
}

func TestRenderRow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	d := ItemDelegate{marked: map[string]bool{"m1": true}, now: func() time.Time { return now }}

	row := d.renderRow(model.MailMessage{
		ID:             "m1",
		From:           "a-very-long-sender-address@example.com",
		Date:           now.Add(-2 * time.Hour),
		HasAttachments: true,
	}, false)

	assert.Contains(t, row, "[x]")
	assert.Contains(t, row, "(no subject)")
	assert.Contains(t, row, "2 hours ago")
	assert.Contains(t, row, "+att")
	assert.Contains(t, row, "…")
}

func TestEmptyStateShowsAddress(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetAddress("ghost_1@mail.test")
	assert.Contains(t, m.View(), "ghost_1@mail.test")
}
