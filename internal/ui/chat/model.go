// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/collection"
	"github.com/morganforge/ragchat/internal/controller"
	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/settings"
	"github.com/morganforge/ragchat/internal/ui/components"
	"github.com/morganforge/ragchat/internal/ui/styles"
	"github.com/morganforge/ragchat/internal/util"
)

// focusArea identifies which part of the chat view receives key events.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusSettings
)

// settingsField identifies the focused row inside the settings panel.
type settingsField int

const (
	settingsModel settingsField = iota
	settingsAPIKey
	settingsRAG
	settingsCollection
	settingsNewCollection
	settingsFieldCount
)

// Model is the chat view: conversation sidebar, transcript, input line,
// and the collapsible settings panel.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	session *controller.Session
	backend Backend

	settings settings.Settings
	registry *collection.Registry

	// One mutating backend operation at a time. sendTarget remembers which
	// conversation the pending send was aimed at.
	flow       controller.Workflow
	sendTarget string

	input    textinput.Model
	viewport viewport.Model
	spinner  components.Spinner

	focus         focusArea
	sidebarCursor int

	showSettings  bool
	settingsFocus settingsField
	modelCursor   int
	apiKeyInput   textinput.Model
	newNameInput  textinput.Model
	collCursor    int

	models            []model.ModelDescriptor
	collectionsLoaded bool

	width  int
	height int
	ready  bool
}

// New creates the chat view.
func New(theme *styles.Theme, session *controller.Session, backend Backend, cfg settings.Settings) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Focus()

	apiKey := textinput.New()
	apiKey.Placeholder = "backend default"
	apiKey.CharLimit = 256
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '*'

	newName := textinput.New()
	newName.Placeholder = "new collection name"
	newName.CharLimit = 64

	return Model{
		theme:        theme,
		keys:         DefaultKeyMap(),
		session:      session,
		backend:      backend,
		settings:     cfg,
		registry:     collection.NewRegistry(),
		input:        input,
		apiKeyInput:  apiKey,
		newNameInput: newName,
		spinner:      components.NewSpinner("Waiting for reply"),
	}
}

// Init starts the initial listing refresh and model fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.session),
		loadModelsCmd(m.backend),
		textinput.Blink,
	)
}

// Settings returns the current chat settings (the RAG view shares the
// collection choice).
func (m Model) Settings() settings.Settings {
	return m.settings
}

// Flow exposes the chat workflow so the status bar can reflect pending
// and failed operations.
func (m Model) Flow() controller.Workflow {
	return m.flow
}

// SetSize updates layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := width - sidebarWidth - 1
	if m.showSettings {
		mainWidth -= settingsWidth
	}
	if mainWidth < 20 {
		mainWidth = 20
	}
	vpHeight := height - 4
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(mainWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = mainWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = mainWidth - 4
	m.refreshTranscript()
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationsLoadedMsg:
		m.flow.Finish(msg.Err)
		m.spinner.Stop()
		m.clampSidebarCursor()
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Could not load conversations"))
		}
		m.refreshTranscript()
		return m, nil

	case ConversationSelectedMsg:
		m.flow.Finish(msg.Err)
		m.spinner.Stop()
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Could not open conversation"))
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case ConversationDeletedMsg:
		m.flow.Finish(msg.Err)
		m.spinner.Stop()
		m.clampSidebarCursor()
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Could not delete conversation"))
		}
		m.refreshTranscript()
		return m, components.ShowStatus("Conversation deleted")

	case ChatSentMsg:
		// A send outcome for a conversation we are no longer on is stale;
		// drop it after releasing the pending slot.
		if msg.TargetID != m.sendTarget {
			m.flow.Finish(msg.Err)
			m.spinner.Stop()
			return m, nil
		}
		m.flow.Finish(msg.Err)
		m.spinner.Stop()
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Failed to send message"))
		}
		m.input.SetValue("")
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case ModelsLoadedMsg:
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Could not load models"))
		}
		m.models = msg.Models
		m.settings.ResolveModel(msg.Models)
		m.modelCursor = m.selectedModelIndex()
		return m, nil

	case CollectionsLoadedMsg:
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Could not load collections"))
		}
		m.collectionsLoaded = true
		m.registry.Replace(msg.Collections)
		names := m.registry.Names()
		if !containsName(names, m.settings.CollectionName) {
			m.settings.CollectionName = names[0]
		}
		m.collCursor = indexOf(names, m.settings.CollectionName)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey routes key events by focus area.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Global shortcuts work from any focus.
	switch {
	case key.Matches(msg, m.keys.NewChat):
		// Clearing the active reference under a pending send would let the
		// completing send re-activate the abandoned conversation.
		if m.flow.Pending() {
			return m, nil
		}
		m.session.StartNew()
		m.refreshTranscript()
		m.focusInput()
		return m, nil

	case key.Matches(msg, m.keys.Sidebar):
		if m.focus == focusSidebar {
			m.focusInput()
		} else {
			m.focus = focusSidebar
			m.input.Blur()
		}
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.showSettings = !m.showSettings
		if m.showSettings {
			m.focus = focusSettings
			m.settingsFocus = settingsModel
			m.input.Blur()
			m.SetSize(m.width, m.height)
			if !m.collectionsLoaded {
				return m, loadCollectionsCmd(m.backend)
			}
		} else {
			m.focusInput()
			m.SetSize(m.width, m.height)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleRAG):
		m.settings.UseRAG = !m.settings.UseRAG
		if m.settings.UseRAG && !m.collectionsLoaded {
			return m, loadCollectionsCmd(m.backend)
		}
		return m, nil
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusSettings:
		return m.handleSettingsKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.flow.Pending() {
			return m, nil
		}
		text := m.input.Value()
		if util.IsBlank(text) {
			// Nothing leaves the client for blank input.
			return m, components.ShowStatus("Type a message first")
		}
		if err := m.flow.Begin(); err != nil {
			return m, nil
		}
		m.sendTarget = m.session.ActiveID()
		return m, tea.Batch(
			sendCmd(m.session, text, m.settings),
			m.spinner.Start(),
		)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	list := m.session.Conversations()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.sidebarCursor < len(list)-1 {
			m.sidebarCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.flow.Pending() || m.sidebarCursor >= len(list) {
			return m, nil
		}
		if err := m.flow.Begin(); err != nil {
			return m, nil
		}
		m.focusInput()
		return m, tea.Batch(
			selectCmd(m.session, list[m.sidebarCursor].ID),
			m.spinner.Start(),
		)

	case key.Matches(msg, m.keys.Delete):
		if m.flow.Pending() || m.sidebarCursor >= len(list) {
			return m, nil
		}
		if err := m.flow.Begin(); err != nil {
			return m, nil
		}
		return m, tea.Batch(
			deleteCmd(m.session, list[m.sidebarCursor].ID),
			m.spinner.Start(),
		)
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.showSettings = false
		m.focusInput()
		m.SetSize(m.width, m.height)
		return m, nil

	case tea.KeyTab:
		m.setSettingsFocus((m.settingsFocus + 1) % settingsFieldCount)
		return m, nil
	case tea.KeyShiftTab:
		m.setSettingsFocus((m.settingsFocus + settingsFieldCount - 1) % settingsFieldCount)
		return m, nil
	}

	switch m.settingsFocus {
	case settingsModel:
		switch msg.Type {
		case tea.KeyLeft:
			if m.modelCursor > 0 {
				m.modelCursor--
				m.settings.ModelID = m.models[m.modelCursor].ID
			}
		case tea.KeyRight:
			if m.modelCursor < len(m.models)-1 {
				m.modelCursor++
				m.settings.ModelID = m.models[m.modelCursor].ID
			}
		}
		return m, nil

	case settingsAPIKey:
		var cmd tea.Cmd
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
		m.settings.APIKey = m.apiKeyInput.Value()
		return m, cmd

	case settingsRAG:
		if msg.Type == tea.KeyEnter || msg.String() == " " {
			m.settings.UseRAG = !m.settings.UseRAG
			if m.settings.UseRAG && !m.collectionsLoaded {
				return m, loadCollectionsCmd(m.backend)
			}
		}
		return m, nil

	case settingsCollection:
		names := m.registry.Names()
		switch msg.Type {
		case tea.KeyUp:
			if m.collCursor > 0 {
				m.collCursor--
			}
		case tea.KeyDown:
			if m.collCursor < len(names)-1 {
				m.collCursor++
			}
		case tea.KeyEnter:
			if m.collCursor >= 0 && m.collCursor < len(names) {
				m.settings.CollectionName = names[m.collCursor]
			}
		}
		return m, nil

	case settingsNewCollection:
		if msg.Type == tea.KeyEnter {
			name, err := m.registry.Propose(m.newNameInput.Value())
			if err != nil {
				return m, components.ShowError(proposeErrorText(err))
			}
			if err := m.registry.Commit(name); err != nil {
				return m, components.ShowError(proposeErrorText(err))
			}
			// A committed proposal is selectable immediately; it reaches the
			// backend with the first upload that uses it.
			m.settings.CollectionName = name
			m.collCursor = indexOf(m.registry.Names(), name)
			m.newNameInput.SetValue("")
			return m, components.ShowSuccess("Collection " + name + " ready for upload")
		}
		var cmd tea.Cmd
		m.newNameInput, cmd = m.newNameInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setSettingsFocus(f settingsField) {
	m.apiKeyInput.Blur()
	m.newNameInput.Blur()
	m.settingsFocus = f
	switch f {
	case settingsAPIKey:
		m.apiKeyInput.Focus()
	case settingsNewCollection:
		m.newNameInput.Focus()
	}
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) clampSidebarCursor() {
	n := len(m.session.Conversations())
	if m.sidebarCursor >= n {
		m.sidebarCursor = n - 1
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
	}
}

func (m Model) selectedModelIndex() int {
	for i, md := range m.models {
		if md.ID == m.settings.ModelID {
			return i
		}
	}
	return 0
}

func containsName(names []string, name string) bool {
	return indexOf(names, name) >= 0
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func proposeErrorText(err error) string {
	switch {
	case err == collection.ErrEmptyName:
		return "Collection name cannot be empty"
	case err == collection.ErrNameExists:
		return "A collection with that name already exists"
	default:
		return err.Error()
	}
}
