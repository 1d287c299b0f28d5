package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ghostmail/internal/model"
)

// identitySwitchedMsg is sent after the active identity changed.
type identitySwitchedMsg struct {
	mailbox model.Mailbox
	err     error
}

// identityCreatedMsg is sent after a new identity was created and activated.
type identityCreatedMsg struct {
	mailbox model.Mailbox
	err     error
}

// identityRemovedMsg is sent after an identity was destroyed.
type identityRemovedMsg struct {
	err error
}

// exportDoneMsg is sent after the identities were written to disk.
type exportDoneMsg struct {
	path string
	err  error
}

// themeChangedMsg is sent after a theme was selected and persisted.
type themeChangedMsg struct {
	name string
	err  error
}

// tokenRefreshedMsg is sent after re-issuing an expired bearer token.
type tokenRefreshedMsg struct {
	mailbox model.Mailbox
	err     error
}

// activate starts polling mb. The inbox is reset synchronously by the
// poller so results of the previous mailbox are reported stale.
func (m *Model) activate(mb model.Mailbox) tea.Cmd {
	p := m.poller
	return func() tea.Msg {
		p.Activate(mb)
		return mailboxActivatedMsg{mailbox: mb}
	}
}

func (m *Model) switchIdentity(id string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		mb, err := s.Switch(context.Background(), id)
		return identitySwitchedMsg{mailbox: mb, err: err}
	}
}

func (m *Model) createIdentity() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		mb, err := s.Add(context.Background())
		return identityCreatedMsg{mailbox: mb, err: err}
	}
}

func (m *Model) removeIdentity(id string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		err := s.Remove(context.Background(), id)
		return identityRemovedMsg{err: err}
	}
}

// exportIdentities writes a JSON backup of every identity to the save
// directory.
func (m *Model) exportIdentities() tea.Cmd {
	s := m.session
	dir := m.saveDir
	return func() tea.Msg {
		name := fmt.Sprintf("ghostmail-identities-%s.json", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(dir, 0o700); err != nil {
			return exportDoneMsg{err: err}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		defer f.Close()

		if err := s.Export(f, "json"); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (m *Model) cycleTheme() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		name, err := s.NextTheme(context.Background())
		return themeChangedMsg{name: name, err: err}
	}
}

func (m *Model) setTheme(name string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		err := s.SetTheme(context.Background(), name)
		return themeChangedMsg{name: name, err: err}
	}
}

// refreshToken re-issues the token of mailboxID after the provider
// rejected it.
func (m *Model) refreshToken(mailboxID string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		mb, err := s.RefreshToken(context.Background(), mailboxID)
		return tokenRefreshedMsg{mailbox: mb, err: err}
	}
}

// handleIdentityResult applies the outcome of an identity or theme command.
func (m Model) handleIdentityResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	active, _ := m.session.Active()

	switch msg := msg.(type) {
	case identitySwitchedMsg:
		if msg.err != nil {
			return m.identityFailed("switch", msg.err)
		}
		m.identityView.SetIdentities(m.session.Identities(), msg.mailbox.ID)
		m.identityView.SetStatus("Now using " + msg.mailbox.Address)
		m.currentView = ViewInbox
		toast := m.showToast("Switched to " + msg.mailbox.Address)
		return m, tea.Batch(toast, m.activate(msg.mailbox))

	case identityCreatedMsg:
		if msg.err != nil {
			return m.identityFailed("create", msg.err)
		}
		m.identityView.SetIdentities(m.session.Identities(), msg.mailbox.ID)
		m.identityView.SetStatus("Created " + msg.mailbox.Address)
		toast := m.showToast("New identity " + msg.mailbox.Address)
		return m, tea.Batch(toast, m.activate(msg.mailbox))

	case identityRemovedMsg:
		if msg.err != nil {
			return m.identityFailed("destroy", msg.err)
		}
		m.identityView.SetIdentities(m.session.Identities(), active.ID)
		m.identityView.SetStatus("Identity destroyed")
		// Removing the active identity moves the session to another one.
		if active.ID != m.inbox.Mailbox().ID {
			return m, m.activate(active)
		}
		return m, nil

	case exportDoneMsg:
		text := "Exported identities to " + msg.path
		if msg.err != nil {
			log.Printf("export identities: %v", msg.err)
			text = "Export failed: " + msg.err.Error()
		}
		m.identityView.SetStatus(text)
		cmd := m.showToast(text)
		return m, cmd

	case themeChangedMsg:
		if msg.err != nil {
			cmd := m.showToast(msg.err.Error())
			return m, cmd
		}
		applyTheme(msg.name)
		m.identityView.SetTheme(msg.name)
		cmd := m.showToast("Theme: " + msg.name)
		return m, cmd

	case tokenRefreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			log.Printf("refresh token: %v", msg.err)
			m.syncErr = "session expired"
			return m, nil
		}
		m.inbox.UpdateToken(msg.mailbox.ID, msg.mailbox.Token)
		m.syncErr = ""
		return m, m.poller.Refresh()
	}

	return m, nil
}

func (m Model) identityFailed(action string, err error) (tea.Model, tea.Cmd) {
	log.Printf("%s identity: %v", action, err)
	m.identityView.SetStatus(fmt.Sprintf("Could not %s identity: %v", action, err))
	cmd := m.showToast(fmt.Sprintf("Could not %s identity", action))
	return m, cmd
}
