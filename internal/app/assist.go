package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ghostmail/internal/ai"
	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/model"
	aiview "github.com/nhle/ghostmail/internal/ui/ai"
)

// openAIPanel switches to the AI panel, remembering where to return.
func (m *Model) openAIPanel() {
	if m.currentView != ViewAI {
		m.aiReturn = m.currentView
		if m.currentView == ViewPrompt {
			m.aiReturn = m.previousView
		}
	}
	m.currentView = ViewAI
}

// openedMessage returns the message shown in the detail view when its id
// is id.
func (m Model) openedMessage(id string) (*model.FullMessage, bool) {
	msg := m.detail.Message()
	if msg == nil || msg.ID != id {
		return nil, false
	}
	return msg, true
}

// startAnalysis requests a risk assessment of the opened message.
func (m Model) startAnalysis(id string) (tea.Model, tea.Cmd) {
	msg, ok := m.openedMessage(id)
	if !ok {
		return m, nil
	}
	m.openAIPanel()
	spin := m.aiView.Start(ai.KindAnalysis, id, "")

	client := m.ai
	return m, tea.Batch(spin, func() tea.Msg {
		a := client.AnalyzeEmail(context.Background(), msg)
		return aiview.ResultMsg{Kind: ai.KindAnalysis, MessageID: id, Text: a.Summary, Analysis: &a}
	})
}

// startReply drafts a reply in tone. A draft already made for the same
// message and tone is shown again unless force is set.
func (m Model) startReply(id, tone string, force bool) (tea.Model, tea.Cmd) {
	msg, ok := m.openedMessage(id)
	if !ok {
		m.currentView = ViewInbox
		return m, nil
	}
	m.openAIPanel()

	if prev, ok := m.history.Latest(id, ai.KindReply); ok && !force && prev.Label == tone {
		m.aiView.Show(aiview.ResultMsg{Kind: ai.KindReply, MessageID: id, Label: tone, Text: prev.Text})
		return m, nil
	}

	spin := m.aiView.Start(ai.KindReply, id, tone)
	client := m.ai
	return m, tea.Batch(spin, func() tea.Msg {
		text := client.DraftReply(context.Background(), msg, tone)
		return aiview.ResultMsg{Kind: ai.KindReply, MessageID: id, Label: tone, Text: text}
	})
}

// startTranslate translates the body of the opened message into lang.
func (m Model) startTranslate(id, lang string) (tea.Model, tea.Cmd) {
	msg, ok := m.openedMessage(id)
	if !ok {
		m.currentView = ViewInbox
		return m, nil
	}
	m.openAIPanel()

	if prev, ok := m.history.Latest(id, ai.KindTranslation); ok && prev.Label == lang {
		m.aiView.Show(aiview.ResultMsg{Kind: ai.KindTranslation, MessageID: id, Label: lang, Text: prev.Text})
		return m, nil
	}

	spin := m.aiView.Start(ai.KindTranslation, id, lang)
	client := m.ai
	body := content.MessageBody(msg)
	return m, tea.Batch(spin, func() tea.Msg {
		text := client.Translate(context.Background(), body, lang)
		return aiview.ResultMsg{Kind: ai.KindTranslation, MessageID: id, Label: lang, Text: text}
	})
}

// startOverview summarises the whole inbox. Codes the model missed are
// filled in from a local scan of subjects and snippets.
func (m Model) startOverview() (tea.Model, tea.Cmd) {
	msgs := m.inbox.Messages()
	if len(msgs) == 0 {
		cmd := m.showToast("Inbox is empty")
		return m, cmd
	}
	m.openAIPanel()
	spin := m.aiView.Start(ai.KindInbox, "", "")

	client := m.ai
	return m, tea.Batch(spin, func() tea.Msg {
		a := client.AnalyzeInbox(context.Background(), msgs)
		if len(a.ExtractedCodes) == 0 {
			a.ExtractedCodes = content.CodesFromMessages(msgs)
		}
		return aiview.ResultMsg{Kind: ai.KindInbox, Text: a.Overview, Inbox: &a}
	})
}

// recordResult keeps a finished result for later recall.
func (m Model) recordResult(res aiview.ResultMsg) {
	m.history.Add(ai.Result{
		Kind:      res.Kind,
		MessageID: res.MessageID,
		Label:     res.Label,
		Text:      res.Text,
	})
}
