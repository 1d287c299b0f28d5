package inboxlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/theme"
)

// senderWidth is the column width reserved for the sender.
const senderWidth = 22

// MessageItem wraps a model.MailMessage so it can be used in a bubbles/list.
type MessageItem struct {
	Msg model.MailMessage
}

// FilterValue returns the string used for filtering.
func (i MessageItem) FilterValue() string {
	return i.Msg.Sender() + " " + i.Msg.Subject
}

// Title returns the subject line.
func (i MessageItem) Title() string { return subjectOrPlaceholder(i.Msg.Subject) }

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	return strings.Join([]string{i.Msg.Sender(), i.Msg.Intro}, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering message rows.
type ItemDelegate struct {
	// marked is shared by reference with the list Model so toggles are
	// visible without rebuilding the delegate.
	marked map[string]bool

	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderRow(mi.Msg, index == m.Index()))
}

func (d ItemDelegate) renderRow(msg model.MailMessage, isSelected bool) string {
	prefix := "○"
	if !msg.Seen {
		prefix = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
	}

	mark := "   "
	if d.marked[msg.ID] {
		mark = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("[x]")
	}

	sender := truncate(msg.Sender(), senderWidth)
	sender = fmt.Sprintf("%-*s", senderWidth, sender)

	subject := subjectOrPlaceholder(msg.Subject)
	if !msg.Seen {
		subject = theme.UnreadStyle.Render(subject)
	}

	attachment := ""
	if msg.HasAttachments {
		attachment = lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(" +att")
	}

	when := ""
	if !msg.Date.IsZero() {
		when = theme.DimmedStyle.Render(humanize.RelTime(msg.Date, d.now(), "ago", "from now"))
	}

	line := fmt.Sprintf("%s %s %s %s%s  %s", prefix, mark, sender, subject, attachment, when)

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func subjectOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(no subject)"
	}
	return s
}

// truncate shortens s to at most n runes, ending with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
