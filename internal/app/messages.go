package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/inbox"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/ui/detail"
	"github.com/nhle/ghostmail/internal/ui/inboxlist"
)

// messageDeletedMsg is sent after a single delete finished on the server.
type messageDeletedMsg struct {
	id  string
	err error
}

// bulkDoneMsg is sent after a bulk action finished on the server.
type bulkDoneMsg struct {
	action inboxlist.BulkAction
	result inbox.BulkResult
}

// sourceSavedMsg is sent after a message source was written to disk.
type sourceSavedMsg struct {
	path     string
	htmlPath string
	err      error
}

// openMessage fetches a full message and marks it seen.
func (m *Model) openMessage(id string) tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		msg, err := in.Open(context.Background(), id)
		return detail.DetailLoadedMsg{Message: msg, Err: err}
	}
}

// deleteMessage removes a message. The inbox restores it when the server
// call fails.
func (m *Model) deleteMessage(id string) tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		err := in.Delete(context.Background(), id)
		return messageDeletedMsg{id: id, err: err}
	}
}

func (m Model) handleMessageDeleted(msg messageDeletedMsg) (tea.Model, tea.Cmd) {
	listCmd := m.inboxList.SetMessages(m.inbox.Messages())
	if msg.err != nil {
		log.Printf("delete message %s: %v", msg.id, msg.err)
		toast := m.showToast("Could not delete message")
		return m, tea.Batch(listCmd, toast)
	}
	toast := m.showToast("Message deleted")
	return m, tea.Batch(listCmd, toast)
}

// handleBulkRequest applies a bulk action to the marked messages.
func (m Model) handleBulkRequest(msg inboxlist.BulkRequestMsg) (tea.Model, tea.Cmd) {
	if len(msg.IDs) == 0 {
		return m, nil
	}
	m.inboxList.ClearMarks()

	in := m.inbox
	ids := append([]string(nil), msg.IDs...)
	action := msg.Action

	var listCmd tea.Cmd
	if action == inboxlist.BulkDelete {
		listCmd = m.inboxList.SetMessages(without(in.Messages(), ids...))
	}

	return m, tea.Batch(listCmd, func() tea.Msg {
		var res inbox.BulkResult
		switch action {
		case inboxlist.BulkDelete:
			res = in.BulkDelete(context.Background(), ids)
		case inboxlist.BulkSeen:
			res = in.BulkMarkSeen(context.Background(), ids)
		}
		return bulkDoneMsg{action: action, result: res}
	})
}

func bulkLabel(a inboxlist.BulkAction) string {
	if a == inboxlist.BulkSeen {
		return "Marked read"
	}
	return "Deleted"
}

// without returns msgs minus the listed ids.
func without(msgs []model.MailMessage, ids ...string) []model.MailMessage {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make([]model.MailMessage, 0, len(msgs))
	for _, msg := range msgs {
		if !drop[msg.ID] {
			out = append(out, msg)
		}
	}
	return out
}

// handleDetailAction routes an action key pressed on an open message.
func (m Model) handleDetailAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case detail.ActionDelete:
		m.currentView = ViewInbox
		cmd := m.inboxList.SetMessages(without(m.inbox.Messages(), msg.MessageID))
		return m, tea.Batch(cmd, m.deleteMessage(msg.MessageID))

	case detail.ActionAnalyze:
		return m.startAnalysis(msg.MessageID)

	case detail.ActionReply:
		m.previousView = m.currentView
		m.currentView = ViewPrompt
		cmd := m.promptView.AskTone(msg.MessageID)
		return m, cmd

	case detail.ActionTranslate:
		m.previousView = m.currentView
		m.currentView = ViewPrompt
		cmd := m.promptView.AskLanguage(msg.MessageID)
		return m, cmd

	case detail.ActionSaveSource:
		return m, m.saveSource(msg.MessageID)
	}
	return m, nil
}

// fileStem turns a provider message id into a name that stays inside the
// save directory.
func fileStem(id string) string {
	stem := filepath.Base(filepath.Clean(string(filepath.Separator) + id))
	if stem == string(filepath.Separator) || stem == "." || stem == "" {
		return "message"
	}
	return stem
}

// saveSource writes the raw message to <id>.eml in the save directory.
// When the message has an HTML part, a sanitized copy is written next to
// it as <id>.html.
func (m *Model) saveSource(id string) tea.Cmd {
	in := m.inbox
	dir := m.saveDir
	stem := fileStem(id)
	return func() tea.Msg {
		raw, err := in.Source(context.Background(), id)
		if err != nil {
			return sourceSavedMsg{err: err}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return sourceSavedMsg{err: err}
		}

		path := filepath.Join(dir, stem+".eml")
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return sourceSavedMsg{err: err}
		}

		res := sourceSavedMsg{path: path}
		parsed, err := content.Parse(raw)
		if err != nil {
			log.Printf("parse source of %s: %v", id, err)
			return res
		}
		if parsed.HTML != "" {
			htmlPath := filepath.Join(dir, stem+".html")
			if err := os.WriteFile(htmlPath, []byte(content.SanitizeHTML(parsed.HTML)), 0o600); err != nil {
				return sourceSavedMsg{path: path, err: fmt.Errorf("writing html: %w", err)}
			}
			res.htmlPath = htmlPath
		}
		return res
	}
}

// fetchUnreadCount loads the number of unread arrival notifications of the
// active mailbox.
func (m *Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	mailboxID := m.inbox.Mailbox().ID
	return func() tea.Msg {
		notes, err := s.GetUnreadNotifications(context.Background(), mailboxID)
		if err != nil {
			log.Printf("load notifications: %v", err)
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notes)}
	}
}

// markNotificationsRead clears the arrival badge once mail is being read.
func (m *Model) markNotificationsRead() tea.Cmd {
	s := m.store
	mailboxID := m.inbox.Mailbox().ID
	return func() tea.Msg {
		if err := s.MarkNotificationsRead(context.Background(), mailboxID); err != nil {
			log.Printf("mark notifications read: %v", err)
		}
		return unreadCountMsg{count: 0}
	}
}
