// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag provides the document tools view: uploading files into a
// collection and querying a collection directly, outside any conversation.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/controller"
	"github.com/morganforge/ragchat/internal/ui/components"
	"github.com/morganforge/ragchat/internal/ui/styles"
	"github.com/morganforge/ragchat/internal/util"
)

// =============================================================================
// BACKEND AND MESSAGES
// =============================================================================

// Backend is the slice of the API client the document tools need.
type Backend interface {
	UploadDocument(ctx context.Context, path, collection string) (*api.UploadDetails, error)
	Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error)
}

// UploadDoneMsg reports a finished document upload.
type UploadDoneMsg struct {
	Details *api.UploadDetails
	Err     error
}

// QueryDoneMsg reports a finished direct query.
type QueryDoneMsg struct {
	Response *api.QueryResponse
	Err      error
}

// =============================================================================
// MODEL
// =============================================================================

// section identifies the focused half of the view.
type section int

const (
	sectionUpload section = iota
	sectionQuery
)

// Model is the document tools view.
type Model struct {
	theme   *styles.Theme
	backend Backend

	collection string

	fileInput  textinput.Model
	queryInput textinput.Model
	results    viewport.Model

	// Upload and query each get their own pending slot; they hit
	// different endpoints and blocking one on the other helps nobody.
	uploadFlow controller.Workflow
	queryFlow  controller.Workflow

	uploadSpinner components.Spinner
	querySpinner  components.Spinner

	focus      section
	lastUpload string
	resultText string

	width  int
	height int
	ready  bool
}

// New creates the document tools view.
func New(theme *styles.Theme, backend Backend, collection string) Model {
	file := textinput.New()
	file.Placeholder = "/path/to/document.pdf"
	file.CharLimit = 512
	file.Focus()

	query := textinput.New()
	query.Placeholder = "What does the handbook say about..."
	query.CharLimit = 2000

	return Model{
		theme:         theme,
		backend:       backend,
		collection:    collection,
		fileInput:     file,
		queryInput:    query,
		uploadSpinner: components.NewSpinner("Uploading"),
		querySpinner:  components.NewSpinner("Searching"),
	}
}

// Init satisfies tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetCollection points the tools at a different collection.
func (m *Model) SetCollection(name string) {
	m.collection = name
}

// SetSize updates layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	resultHeight := height - 12
	if resultHeight < 3 {
		resultHeight = 3
	}
	if !m.ready {
		m.results = viewport.New(width-4, resultHeight)
		m.ready = true
	} else {
		m.results.Width = width - 4
		m.results.Height = resultHeight
	}
	m.fileInput.Width = width - 20
	m.queryInput.Width = width - 20
}

// Update handles messages for the document tools.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case UploadDoneMsg:
		m.uploadFlow.Finish(msg.Err)
		m.uploadSpinner.Stop()
		if msg.Err != nil {
			// The path stays put so the user can correct and retry.
			return m, components.ShowError(api.Detail(msg.Err, "Upload failed"))
		}
		m.fileInput.SetValue("")
		m.lastUpload = fmt.Sprintf("Ingested %s: %d chunks into %s",
			msg.Details.Filename, msg.Details.Chunks, m.collection)
		return m, components.ShowSuccess(m.lastUpload)

	case QueryDoneMsg:
		m.queryFlow.Finish(msg.Err)
		m.querySpinner.Stop()
		if msg.Err != nil {
			return m, components.ShowError(api.Detail(msg.Err, "Query failed"))
		}
		m.resultText = m.renderResult(msg.Response)
		m.results.SetContent(m.resultText)
		m.results.GotoTop()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.uploadSpinner, cmd = m.uploadSpinner.Update(msg)
	cmds = append(cmds, cmd)
	m.querySpinner, cmd = m.querySpinner.Update(msg)
	cmds = append(cmds, cmd)
	m.results, cmd = m.results.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		if m.focus == sectionUpload {
			m.focus = sectionQuery
			m.fileInput.Blur()
			m.queryInput.Focus()
		} else {
			m.focus = sectionUpload
			m.queryInput.Blur()
			m.fileInput.Focus()
		}
		return m, nil

	case tea.KeyEnter:
		if m.focus == sectionUpload {
			return m.submitUpload()
		}
		return m.submitQuery()
	}

	var cmd tea.Cmd
	if m.focus == sectionUpload {
		m.fileInput, cmd = m.fileInput.Update(msg)
	} else {
		m.queryInput, cmd = m.queryInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitUpload() (Model, tea.Cmd) {
	if m.uploadFlow.Pending() {
		return m, nil
	}
	path := strings.TrimSpace(m.fileInput.Value())
	if path == "" {
		return m, components.ShowStatus("Enter a file path first")
	}
	if err := m.uploadFlow.Begin(); err != nil {
		return m, nil
	}
	collection := m.collection
	backend := m.backend
	return m, tea.Batch(
		func() tea.Msg {
			details, err := backend.UploadDocument(context.Background(), path, collection)
			return UploadDoneMsg{Details: details, Err: err}
		},
		m.uploadSpinner.Start(),
	)
}

func (m Model) submitQuery() (Model, tea.Cmd) {
	if m.queryFlow.Pending() {
		return m, nil
	}
	query := strings.TrimSpace(m.queryInput.Value())
	if query == "" {
		return m, components.ShowStatus("Enter a query first")
	}
	if err := m.queryFlow.Begin(); err != nil {
		return m, nil
	}
	req := api.QueryRequest{Query: query, CollectionName: m.collection}
	backend := m.backend
	return m, tea.Batch(
		func() tea.Msg {
			resp, err := backend.Query(context.Background(), req)
			return QueryDoneMsg{Response: resp, Err: err}
		},
		m.querySpinner.Start(),
	)
}

// renderResult formats the answer and its sources.
func (m Model) renderResult(resp *api.QueryResponse) string {
	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(resp.Answer)
	b.WriteString("\n")

	if len(resp.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.FormTitle.Render("Sources"))
		b.WriteString("\n")
		for i, src := range resp.Sources {
			b.WriteString(fmt.Sprintf("%d. %s (score %.3f)\n", i+1, src.Origin(), src.Score))
			b.WriteString(m.theme.FormHint.Render(util.TruncateRunes(src.Content, 200)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View renders the document tools.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.theme.FormTitle.Render("Documents: " + m.collection))
	b.WriteString("\n\n")

	b.WriteString(m.sectionLabel(sectionUpload, "Upload file"))
	b.WriteString("\n")
	b.WriteString(m.fileInput.View())
	b.WriteString("\n")
	if m.uploadSpinner.IsActive() {
		b.WriteString(m.uploadSpinner.View())
	} else if m.uploadFlow.Outcome() == controller.OutcomeFailure {
		b.WriteString(m.theme.ErrorMessage.Render(api.Detail(m.uploadFlow.Err(), "Upload failed")))
	} else if m.lastUpload != "" {
		b.WriteString(m.theme.FormHint.Render(m.lastUpload))
	}
	b.WriteString("\n\n")

	b.WriteString(m.sectionLabel(sectionQuery, "Query collection"))
	b.WriteString("\n")
	b.WriteString(m.queryInput.View())
	b.WriteString("\n")
	if m.querySpinner.IsActive() {
		b.WriteString(m.querySpinner.View())
	}
	b.WriteString("\n")
	b.WriteString(m.results.View())
	b.WriteString("\n")
	b.WriteString(m.theme.FormHint.Render("Tab switch section, Enter submit"))

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (m Model) sectionLabel(s section, text string) string {
	if m.focus == s {
		return m.theme.FormTitle.Render(text)
	}
	return m.theme.FormLabel.Render(text)
}
