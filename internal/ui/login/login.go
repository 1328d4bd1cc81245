// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the credentials form shown while the session gate
// is locked. Everything behind it stays unmounted until sign-in succeeds.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/auth"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SubmitMsg carries the entered credentials to the gate.
type SubmitMsg struct {
	Email    string
	Password string
}

// ResultMsg reports the outcome of a sign-in attempt.
type ResultMsg struct {
	Session auth.Session
	Err     error
}

// =============================================================================
// MODEL
// =============================================================================

// field indexes into the form's inputs.
const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// Model is the login form: email and password inputs plus an error line.
type Model struct {
	inputs  []textinput.Model
	focused int
	errText string
	busy    bool
	theme   *styles.Theme

	width  int
	height int
}

// New creates a login form with the email field focused.
func New(theme *styles.Theme) Model {
	email := textinput.New()
	email.Placeholder = "user@example.com"
	email.CharLimit = 128
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 36
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return Model{
		inputs:  []textinput.Model{email, password},
		focused: fieldEmail,
		theme:   theme,
	}
}

// Init satisfies tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the form's layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError shows an error line under the form and re-enables input.
func (m *Model) SetError(text string) {
	m.errText = text
	m.busy = false
}

// Reset clears the form for the next sign-in, keeping focus on email.
func (m *Model) Reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.focused = fieldEmail
	m.inputs[fieldEmail].Focus()
	m.errText = ""
	m.busy = false
}

// Update handles key events for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			m.focusField((m.focused + 1) % fieldCount)
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.focusField((m.focused + fieldCount - 1) % fieldCount)
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			email := strings.TrimSpace(m.inputs[fieldEmail].Value())
			password := m.inputs[fieldPassword].Value()
			if email == "" || password == "" {
				m.errText = "Email and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, func() tea.Msg {
				return SubmitMsg{Email: email, Password: password}
			}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
}

// View renders the centered login box.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render("Sign in to ragchat"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.FormLabel.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.fieldStyle(fieldEmail).Render(m.inputs[fieldEmail].View()))
	b.WriteString("\n\n")

	b.WriteString(m.theme.FormLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.fieldStyle(fieldPassword).Render(m.inputs[fieldPassword].View()))
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.theme.FormHint.Render("Signing in..."))
	case m.errText != "":
		b.WriteString(m.theme.ErrorTitle.Render(m.errText))
	default:
		b.WriteString(m.theme.FormHint.Render("Enter to sign in, Tab to switch fields"))
	}

	box := m.theme.FormBox.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m Model) fieldStyle(i int) lipgloss.Style {
	if i == m.focused {
		return m.theme.FormFieldFocus
	}
	return m.theme.FormField
}
