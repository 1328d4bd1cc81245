// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the root Bubble Tea model: the session gate in
// front, then the navigation shell with the chat and document views.
//
// The gated views are not mounted until sign-in succeeds; their initial
// backend fetches happen on mount, so nothing talks to the backend while
// the login form is up.
package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/auth"
	"github.com/morganforge/ragchat/internal/config"
	"github.com/morganforge/ragchat/internal/controller"
	"github.com/morganforge/ragchat/internal/settings"
	"github.com/morganforge/ragchat/internal/ui/chat"
	"github.com/morganforge/ragchat/internal/ui/components"
	"github.com/morganforge/ragchat/internal/ui/login"
	"github.com/morganforge/ragchat/internal/ui/rag"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// gateResolvedMsg reports the initial session check.
type gateResolvedMsg struct{}

// signedOutMsg reports a completed sign-out.
type signedOutMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the application root.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	gate   *auth.Gate
	cfg    *config.Config

	header    *components.Header
	statusBar *components.StatusBar
	toasts    *components.ToastManager
	ticking   bool

	login   login.Model
	chat    chat.Model
	rag     rag.Model
	mounted bool

	width  int
	height int
}

// New creates the application root.
func New(theme *styles.Theme, client *api.Client, gate *auth.Gate, cfg *config.Config) Model {
	sb := components.NewStatusBar(theme)
	sb.BackendURL = client.BaseURL()

	return Model{
		theme:     theme,
		client:    client,
		gate:      gate,
		cfg:       cfg,
		header:    components.NewHeader(theme),
		statusBar: sb,
		toasts:    components.NewToastManager(),
		login:     login.New(theme),
	}
}

// Init resolves the session gate.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.login.Init(),
		func() tea.Msg {
			m.gate.Resolve()
			return gateResolvedMsg{}
		},
	)
}

// mountViews builds the gated views after sign-in and kicks off their
// initial fetches.
func (m *Model) mountViews() tea.Cmd {
	session := controller.NewSession(m.client)

	cfg := settings.New()
	cfg.UseRAG = m.cfg.Chat.UseRAG
	cfg.CollectionName = m.cfg.Chat.CollectionName

	m.chat = chat.New(m.theme, session, m.client, cfg)
	m.rag = rag.New(m.theme, m.client, cfg.CollectionName)
	m.mounted = true

	m.header.UserName = m.gate.Session().User.DisplayName()
	m.header.Active = components.TabChat
	m.applySize()

	return m.chat.Init()
}

// unmountViews tears the gated views down on sign-out.
func (m *Model) unmountViews() {
	m.mounted = false
	m.header.UserName = ""
	m.login.Reset()
	m.applySize()
}

// Update handles messages for the application root.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applySize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+l":
			if m.gate.Unlocked() {
				return m, m.signOutCmd()
			}
		case "ctrl+t":
			if m.mounted {
				return m.switchTab()
			}
		}

	case gateResolvedMsg:
		// No persisted session exists, so this always lands on the login
		// form; the redirect flag is consumed exactly once.
		m.gate.ShouldRedirect()
		return m, nil

	case login.SubmitMsg:
		return m, m.signInCmd(msg.Email, msg.Password)

	case login.ResultMsg:
		if msg.Err != nil {
			m.login.SetError("Invalid email or password")
			return m, nil
		}
		return m, m.mountViews()

	case signedOutMsg:
		m.unmountViews()
		return m, nil

	case components.ToastAddMsg:
		switch msg.Kind {
		case components.ToastKindError:
			m.toasts.AddError(msg.Message)
		case components.ToastKindSuccess:
			m.toasts.AddSuccess(msg.Message)
		case components.ToastKindWarning:
			m.toasts.AddWarning(msg.Message)
		default:
			m.toasts.AddStatus(msg.Message)
		}
		if !m.ticking {
			m.ticking = true
			return m, components.ToastTickCmd()
		}
		return m, nil

	case components.ToastTickMsg:
		if m.toasts.HasToasts() {
			m.toasts.Tick()
			return m, components.ToastTickCmd()
		}
		m.ticking = false
		return m, nil

	// Completion messages go to the view whose workflow started them, even
	// when the user has switched tabs in the meantime; dropping one would
	// leave that workflow pending forever.
	case chat.ConversationsLoadedMsg, chat.ConversationSelectedMsg,
		chat.ConversationDeletedMsg, chat.ChatSentMsg,
		chat.ModelsLoadedMsg, chat.CollectionsLoadedMsg:
		if !m.mounted {
			return m, nil
		}
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		m.syncStatusBar()
		return m, cmd

	case rag.UploadDoneMsg, rag.QueryDoneMsg:
		if !m.mounted {
			return m, nil
		}
		var cmd tea.Cmd
		m.rag, cmd = m.rag.Update(msg)
		return m, cmd
	}

	// Route everything else to the active view.
	if !m.gate.Unlocked() {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}
	if !m.mounted {
		return m, nil
	}

	var cmd tea.Cmd
	if m.header.Active == components.TabChat {
		m.chat, cmd = m.chat.Update(msg)
	} else {
		m.rag, cmd = m.rag.Update(msg)
	}
	m.syncStatusBar()
	return m, cmd
}

// switchTab toggles between the chat and document views, carrying the
// chat's collection choice over to the document tools.
func (m Model) switchTab() (tea.Model, tea.Cmd) {
	if m.header.Active == components.TabChat {
		m.header.Active = components.TabRAG
		m.rag.SetCollection(m.chat.Settings().CollectionName)
	} else {
		m.header.Active = components.TabChat
	}
	return m, nil
}

func (m Model) signInCmd(email, password string) tea.Cmd {
	gate := m.gate
	return func() tea.Msg {
		err := gate.SignIn(email, password)
		return login.ResultMsg{Session: gate.Session(), Err: err}
	}
}

func (m Model) signOutCmd() tea.Cmd {
	gate := m.gate
	return func() tea.Msg {
		_ = gate.SignOut()
		return signedOutMsg{}
	}
}

func (m *Model) applySize() {
	if m.width == 0 {
		return
	}
	m.login.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	if m.mounted {
		body := m.height - 2
		if body < 5 {
			body = 5
		}
		m.chat.SetSize(m.width, body)
		m.rag.SetSize(m.width, body)
	}
}

func (m *Model) syncStatusBar() {
	cfg := m.chat.Settings()
	m.statusBar.ModelName = cfg.ModelID
	m.statusBar.RAGEnabled = cfg.UseRAG
	m.statusBar.Collection = cfg.CollectionName

	flow := m.chat.Flow()
	switch {
	case flow.Pending():
		m.statusBar.Status = components.StatusWaiting
	case flow.Outcome() == controller.OutcomeFailure:
		m.statusBar.Status = components.StatusError
	default:
		m.statusBar.Status = components.StatusReady
	}
}

// View renders the application.
func (m Model) View() string {
	var body string
	if !m.gate.Unlocked() {
		body = m.login.View()
	} else if m.header.Active == components.TabChat {
		body = m.chat.View()
	} else {
		body = m.rag.View()
	}

	var screen string
	if m.gate.Unlocked() {
		screen = lipgloss.JoinVertical(
			lipgloss.Left,
			m.header.Render(),
			body,
			m.statusBar.Render(),
		)
	} else {
		screen = body
	}

	if m.toasts.HasToasts() {
		// Width only: the stack sits under the content instead of being
		// composited over it, which plain string rendering cannot do.
		stack := components.RenderToastStack(m.toasts.Toasts(), m.width, 0)
		return screen + "\n" + stack
	}
	return screen
}
