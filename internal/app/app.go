package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/ghostmail/internal/ai"
	"github.com/nhle/ghostmail/internal/inbox"
	"github.com/nhle/ghostmail/internal/keys"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/session"
	"github.com/nhle/ghostmail/internal/store"
	appsync "github.com/nhle/ghostmail/internal/sync"
	"github.com/nhle/ghostmail/internal/ui"
	aiview "github.com/nhle/ghostmail/internal/ui/ai"
	"github.com/nhle/ghostmail/internal/ui/command"
	"github.com/nhle/ghostmail/internal/ui/detail"
	helpview "github.com/nhle/ghostmail/internal/ui/help"
	"github.com/nhle/ghostmail/internal/ui/identities"
	"github.com/nhle/ghostmail/internal/ui/inboxlist"
	"github.com/nhle/ghostmail/internal/ui/prompt"
)

// toastDuration is how long a status bar toast stays visible.
const toastDuration = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewAI
	ViewIdentities
	ViewHelp
	ViewCommand
	ViewPrompt
)

// Deps are the services the root model drives.
type Deps struct {
	Session *session.Store
	Inbox   *inbox.Inbox
	Poller  *appsync.Poller
	AI      *ai.Client
	Store   store.Store

	// SaveDir receives saved message sources and identity exports.
	SaveDir string
}

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// clearToastMsg hides the toast with the given sequence number.
type clearToastMsg struct {
	seq int
}

// mailboxActivatedMsg is sent once the poller starts on a mailbox.
type mailboxActivatedMsg struct {
	mailbox model.Mailbox
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the session, inbox and poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	aiReturn     ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	session *session.Store
	inbox   *inbox.Inbox
	poller  *appsync.Poller
	ai      *ai.Client
	store   store.Store
	history *ai.History
	saveDir string

	inboxList    inboxlist.Model
	detail       detail.Model
	aiView       aiview.Model
	identityView identities.Model
	helpView     helpview.Model
	commandView  command.Model
	promptView   prompt.Model

	ready       bool
	unreadCount int
	syncErr     string
	refreshing  bool
	toast       string
	toastSeq    int
}

// New creates the root application model. The session must already be
// restored.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	applyTheme(d.Session.Theme())

	identityView := identities.New(k, 80, 24)
	identityView.SetTheme(d.Session.Theme())

	return Model{
		currentView:  ViewInbox,
		keys:         k,
		session:      d.Session,
		inbox:        d.Inbox,
		poller:       d.Poller,
		ai:           d.AI,
		store:        d.Store,
		history:      ai.NewHistory(),
		saveDir:      d.SaveDir,
		inboxList:    inboxlist.New(k, 80, 24),
		detail:       detail.New(k, 80, 24),
		aiView:       aiview.New(d.AI.Configured(), k, 80, 24),
		identityView: identityView,
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		promptView:   prompt.New(80, 24),
	}
}

// Init starts polling the active identity and listens for sync results.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.poller.WaitForNextResult()}
	if mb, ok := m.session.Active(); ok {
		cmds = append(cmds, m.activate(mb))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.aiView.SetSize(contentWidth, contentHeight)
		m.identityView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.promptView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case mailboxActivatedMsg:
		m.syncErr = ""
		m.history.Reset()
		m.inboxList.SetAddress(msg.mailbox.Address)
		m.inboxList.ClearMarks()
		cmd := m.inboxList.SetMessages(m.inbox.Messages())
		return m, tea.Batch(cmd, m.fetchUnreadCount())

	case appsync.SyncResultMsg:
		return m.handleSyncResult(msg)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	// Inbox list
	case inboxlist.SelectedMessageMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.openMessage(msg.ID)

	case inboxlist.DeleteRequestMsg:
		cmd := m.inboxList.SetMessages(without(m.inbox.Messages(), msg.ID))
		return m, tea.Batch(cmd, m.deleteMessage(msg.ID))

	case inboxlist.BulkRequestMsg:
		return m.handleBulkRequest(msg)

	case messageDeletedMsg:
		return m.handleMessageDeleted(msg)

	case bulkDoneMsg:
		text := fmt.Sprintf("%s: %s", bulkLabel(msg.action), msg.result)
		listCmd := m.inboxList.SetMessages(m.inbox.Messages())
		toastCmd := m.showToast(text)
		return m, tea.Batch(listCmd, toastCmd)

	// Detail
	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		listCmd := m.inboxList.SetMessages(m.inbox.Messages())
		return m, tea.Batch(cmd, listCmd, m.markNotificationsRead())

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case sourceSavedMsg:
		text := "Saved source to " + msg.path
		if msg.err != nil {
			text = "Could not save source: " + msg.err.Error()
		} else if msg.htmlPath != "" {
			text += " and " + msg.htmlPath
		}
		cmd := m.showToast(text)
		return m, cmd

	// Prompts
	case prompt.ToneChosenMsg:
		return m.startReply(msg.MessageID, msg.Tone, false)

	case prompt.LanguageChosenMsg:
		return m.startTranslate(msg.MessageID, msg.Language)

	case prompt.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	// AI panel
	case aiview.ResultMsg:
		m.recordResult(msg)
		var cmd tea.Cmd
		m.aiView, cmd = m.aiView.Update(msg)
		return m, cmd

	case aiview.RedraftMsg:
		return m.startReply(msg.MessageID, msg.Tone, true)

	case aiview.AIPanelCloseMsg:
		m.currentView = m.aiReturn
		return m, nil

	// Identities
	case identities.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case identities.SwitchMsg:
		cmd := m.identityView.Busy("Switching...")
		return m, tea.Batch(cmd, m.switchIdentity(msg.ID))

	case identities.CreateMsg:
		cmd := m.identityView.Busy("Creating identity...")
		return m, tea.Batch(cmd, m.createIdentity())

	case identities.RemoveMsg:
		cmd := m.identityView.Busy("Destroying identity...")
		return m, tea.Batch(cmd, m.removeIdentity(msg.ID))

	case identities.ExportMsg:
		return m, m.exportIdentities()

	case identities.CycleThemeMsg:
		return m, m.cycleTheme()

	case identitySwitchedMsg, identityCreatedMsg, identityRemovedMsg,
		exportDoneMsg, themeChangedMsg, tokenRefreshedMsg:
		return m.handleIdentityResult(msg)

	// Overlays
	case helpview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active view.
// It reports false when the key should go to the active view instead.
// openHelp shows the help overlay led by the current view's bindings.
func (m *Model) openHelp() {
	m.previousView = m.currentView
	m.currentView = ViewHelp

	switch m.previousView {
	case ViewDetail:
		m.helpView.Focus(keys.SectionMessage)
	case ViewAI:
		m.helpView.Focus(keys.SectionAI)
	case ViewIdentities:
		m.helpView.Focus(keys.SectionIdentities)
	default:
		m.helpView.Focus(keys.SectionInbox)
	}
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit, true
	}
	if m.inputFocused() {
		return m, nil, false
	}

	switch msg.String() {
	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.openHelp()
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true
	}

	if m.currentView != ViewInbox {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		m.poller.Stop()
		return m, tea.Quit, true

	case "r":
		cmd := m.showToast("Refreshing...")
		return m, tea.Batch(m.poller.Refresh(), cmd), true

	case "i":
		m.openIdentities()
		return m, nil, true

	case "A":
		next, cmd := m.startOverview()
		return next, cmd, true
	}

	return m, nil, false
}

// inputFocused reports whether the active view is capturing text input.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewCommand, ViewPrompt:
		return true
	case ViewInbox:
		return m.inboxList.Searching()
	case ViewIdentities:
		return m.identityView.Mode() == identities.ModeConfirmDelete
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxList, cmd = m.inboxList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewAI:
		m.aiView, cmd = m.aiView.Update(msg)
	case ViewIdentities:
		m.identityView, cmd = m.identityView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewPrompt:
		m.promptView, cmd = m.promptView.Update(msg)
	}

	return m, cmd
}

// handleSyncResult applies a poll outcome to the UI and keeps listening.
func (m Model) handleSyncResult(msg appsync.SyncResultMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.poller.WaitForNextResult()}

	if msg.Stale || msg.MailboxID != m.inbox.Mailbox().ID {
		return m, tea.Batch(cmds...)
	}

	switch {
	case msg.AuthError:
		m.syncErr = "session expired"
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshToken(msg.MailboxID))
		}

	case msg.Error != nil:
		m.syncErr = "offline"

	default:
		m.syncErr = ""
		cmds = append(cmds, m.inboxList.SetMessages(m.inbox.Messages()))
		if len(msg.Arrivals) > 0 {
			cmds = append(cmds, m.showToast(arrivalText(msg.Arrivals)), m.fetchUnreadCount())
		}
	}

	return m, tea.Batch(cmds...)
}

// arrivalText summarises new messages for a toast.
func arrivalText(arrivals []model.MailMessage) string {
	if len(arrivals) == 1 {
		a := arrivals[0]
		return fmt.Sprintf("New message from %s: %s", a.Sender(), a.Subject)
	}
	return fmt.Sprintf("%d new messages", len(arrivals))
}

// showToast displays text in the status bar until toastDuration passes or
// another toast replaces it.
func (m *Model) showToast(text string) tea.Cmd {
	m.toastSeq++
	m.toast = text
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

func (m *Model) openIdentities() {
	active, _ := m.session.Active()
	m.identityView.SetIdentities(m.session.Identities(), active.ID)
	m.identityView.SetTheme(m.session.Theme())
	m.previousView = m.currentView
	m.currentView = ViewIdentities
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return m, nil
	}

	switch fields[0] {
	case "refresh", "sync":
		cmd := m.showToast("Refreshing...")
		return m, tea.Batch(m.poller.Refresh(), cmd)
	case "new":
		cmd := m.showToast("Creating identity...")
		return m, tea.Batch(cmd, m.createIdentity())
	case "identities", "ids":
		m.openIdentities()
		return m, nil
	case "overview":
		return m.startOverview()
	case "export":
		return m, m.exportIdentities()
	case "theme":
		if len(fields) < 2 {
			return m, m.cycleTheme()
		}
		return m, m.setTheme(fields[1])
	case "help":
		m.openHelp()
		return m, nil
	case "quit", "q":
		m.poller.Stop()
		return m, tea.Quit
	default:
		cmd := m.showToast("Unknown command: " + input)
		return m, cmd
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) headerTitle() string {
	title := "GhostMail"
	if mb := m.inbox.Mailbox(); mb.Address != "" {
		title += " · " + mb.Address
	}
	if m.unreadCount > 0 {
		title += fmt.Sprintf(" [%d new]", m.unreadCount)
	}
	return title
}

// headerStatus returns quota usage and the sync state.
func (m Model) headerStatus() string {
	var parts []string
	if acc := m.inbox.Account(); acc != nil && acc.Quota > 0 {
		parts = append(parts, fmt.Sprintf("%s / %s",
			humanize.Bytes(uint64(acc.Used)),
			humanize.Bytes(uint64(acc.Quota)),
		))
	}

	switch {
	case m.syncErr != "":
		parts = append(parts, "⚠ "+m.syncErr)
	case !m.inbox.Loaded():
		parts = append(parts, "connecting...")
	default:
		parts = append(parts, fmt.Sprintf("%d unread", m.inbox.Unread()))
	}

	return strings.Join(parts, " | ")
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewAI:
		return m.aiView.View()
	case ViewIdentities:
		return m.identityView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewPrompt:
		return m.promptView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "any key close"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | d delete | a analyze | R reply | T translate | s save source | j/k scroll"
	case ViewAI:
		return "1/2/3 redraft | esc close"
	case ViewIdentities:
		return "enter switch | n new | d destroy | x export | t theme | esc back"
	case ViewPrompt:
		return "enter submit | esc cancel"
	default:
		if marked := len(m.inboxList.Marked()); marked > 0 {
			return fmt.Sprintf("%d marked | D delete | M mark read | space unmark", marked)
		}
		return "q quit | ? help | enter open | space mark | d delete | / search | r refresh | A overview | i identities"
	}
}
