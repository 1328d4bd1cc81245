// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/util"
)

const (
	sidebarWidth  = 28
	settingsWidth = 34
)

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	columns := []string{m.renderSidebar(), m.renderMain()}
	if m.showSettings {
		columns = append(columns, m.renderSettings())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	var b strings.Builder

	title := m.theme.FormTitle.Render("Conversations")
	b.WriteString(title)
	b.WriteString("\n\n")

	list := m.session.Conversations()
	if len(list) == 0 {
		b.WriteString(m.theme.ConversationMeta.Render("No conversations yet"))
	}
	for i, conv := range list {
		line := conv.Preview(sidebarWidth - 4)
		style := m.theme.ConversationItem
		if conv.ID == m.session.ActiveID() {
			line = "* " + line
		} else {
			line = "  " + line
		}
		if m.focus == focusSidebar && i == m.sidebarCursor {
			style = m.theme.ConversationItemSelected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")

		meta := conv.FormatUpdatedAt()
		if last := conv.GetLastMessage(); last != nil {
			if meta != "" {
				meta += " "
			}
			meta += last.Preview(sidebarWidth)
		}
		if meta != "" {
			b.WriteString(m.theme.ConversationMeta.Render("  " + util.TruncateWidth(meta, sidebarWidth-4)))
			b.WriteString("\n")
		}
	}

	if m.focus == focusSidebar {
		b.WriteString("\n")
		b.WriteString(m.theme.FormHint.Render("Enter open, C-d delete"))
	}

	return m.theme.Sidebar.
		Width(sidebarWidth).
		Height(m.height - 2).
		Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript rebuilds the viewport content from the active
// conversation.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	active := m.session.Active()
	if active == nil {
		m.viewport.SetContent(m.renderWelcome())
		return
	}

	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render(active.GetTitle()))
	b.WriteString(m.theme.ConversationMeta.Render(fmt.Sprintf("  %d messages", active.MessageCount())))
	b.WriteString("\n\n")

	if active.IsEmpty() {
		b.WriteString(m.theme.ConversationMeta.Render("No messages yet"))
		m.viewport.SetContent(b.String())
		return
	}
	for _, msg := range active.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m Model) renderMessage(msg *model.Message) string {
	width := m.viewport.Width - 8
	if width < 16 {
		width = 16
	}

	stamp := msg.FormatTimestamp()

	if msg.IsUser() {
		bubble := m.theme.UserBubble.MaxWidth(width).Render(msg.Content)
		if stamp != "" {
			bubble = lipgloss.JoinVertical(lipgloss.Right, bubble, m.theme.ConversationMeta.Render(stamp))
		}
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, bubble)
	}

	content := msg.Content
	if rendered, err := renderMarkdown(content, width); err == nil {
		content = rendered
	}
	bubble := m.theme.AssistantBubble.MaxWidth(width).Render(strings.TrimRight(content, "\n"))
	if stamp != "" {
		bubble = lipgloss.JoinVertical(lipgloss.Left, bubble, m.theme.ConversationMeta.Render(stamp))
	}
	return bubble
}

// renderMarkdown renders assistant replies through glamour.
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func (m Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(m.theme.WelcomeLogo.Render("ragchat"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.WelcomeInfo.Render("Ask anything, or enable RAG to query your documents."))
	b.WriteString("\n\n")
	b.WriteString(m.theme.WelcomePressKey.Render("Type a message and press Enter to start a conversation."))
	box := m.theme.WelcomeBox.Render(b.String())
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// MAIN COLUMN
// =============================================================================

func (m Model) renderMain() string {
	var statusLine string
	if m.spinner.IsActive() {
		statusLine = m.spinner.View()
	} else {
		statusLine = m.theme.FormHint.Render(m.contextLine())
	}

	inputView := m.theme.InputContainer.
		Width(m.viewport.Width).
		Render(m.theme.InputPrompt.Render("> ") + m.input.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusLine,
		inputView,
	)
}

// contextLine summarizes the send settings under the transcript.
func (m Model) contextLine() string {
	var parts []string
	if m.settings.HasModel() {
		parts = append(parts, m.settings.ModelID)
	}
	if m.settings.UseRAG {
		parts = append(parts, "RAG on ("+m.settings.CollectionName+")")
	} else {
		parts = append(parts, "RAG off")
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// SETTINGS PANEL
// =============================================================================

func (m Model) renderSettings() string {
	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render("Chat settings"))
	b.WriteString("\n\n")

	// Model picker
	b.WriteString(m.settingsLabel(settingsModel, "Model"))
	b.WriteString("\n")
	if len(m.models) == 0 {
		b.WriteString(m.theme.FormHint.Render("backend default"))
	} else {
		b.WriteString(m.theme.InputText.Render(m.models[m.modelCursor].Label()))
		if m.settingsFocus == settingsModel {
			b.WriteString(m.theme.FormHint.Render("  <->"))
		}
	}
	b.WriteString("\n\n")

	// API key
	b.WriteString(m.settingsLabel(settingsAPIKey, "API key"))
	b.WriteString("\n")
	b.WriteString(m.apiKeyInput.View())
	b.WriteString("\n\n")

	// RAG toggle
	b.WriteString(m.settingsLabel(settingsRAG, "Use RAG"))
	b.WriteString("\n")
	if m.settings.UseRAG {
		b.WriteString(m.theme.RAGOn.Render("[x] enabled"))
	} else {
		b.WriteString(m.theme.RAGOff.Render("[ ] disabled"))
	}
	b.WriteString("\n\n")

	// Collection picker
	b.WriteString(m.settingsLabel(settingsCollection, "Collection"))
	b.WriteString("\n")
	names := m.registry.Names()
	for i, name := range names {
		marker := "  "
		if name == m.settings.CollectionName {
			marker = "* "
		}
		line := marker + util.TruncateRunes(name, settingsWidth-8)
		if m.registry.IsProposed(name) {
			line += " (new)"
		}
		if m.settingsFocus == settingsCollection && i == m.collCursor {
			b.WriteString(m.theme.ConversationItemSelected.Render(line))
		} else {
			b.WriteString(m.theme.ConversationItem.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// New collection proposal
	b.WriteString(m.settingsLabel(settingsNewCollection, "New collection"))
	b.WriteString("\n")
	b.WriteString(m.newNameInput.View())
	b.WriteString("\n\n")

	b.WriteString(m.theme.FormHint.Render("Tab next field, Esc close"))

	return m.theme.FormBox.
		Width(settingsWidth).
		Height(m.height - 4).
		Render(b.String())
}

func (m Model) settingsLabel(f settingsField, text string) string {
	if m.settingsFocus == f {
		return m.theme.FormTitle.Render(text)
	}
	return m.theme.FormLabel.Render(text)
}
