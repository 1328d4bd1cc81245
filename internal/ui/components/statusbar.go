// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the ragchat TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/ui/styles"
	"github.com/morganforge/ragchat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusWaiting
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusWaiting:
		return "Waiting..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status so states are
// distinguishable without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusWaiting:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar: connection target, model, RAG state
// and keyboard shortcuts.
type StatusBar struct {
	BackendURL    string
	ModelName     string
	RAGEnabled    bool
	Collection    string
	Status        Status
	Width         int
	ShowShortcuts bool
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// Render draws the status bar.
func (s *StatusBar) Render() string {
	var left []string

	// Fixed-width status cell so the bar does not jitter as states change.
	left = append(left, util.PadRight(s.Status.Icon()+" "+s.Status.String(), 14))

	if s.ModelName != "" {
		left = append(left, util.TruncateRunes(s.ModelName, 32))
	}

	if s.RAGEnabled {
		left = append(left, s.theme.RAGOn.Render("RAG:"+s.Collection))
	} else {
		left = append(left, s.theme.RAGOff.Render("RAG off"))
	}

	leftText := strings.Join(left, " | ")

	var rightText string
	if s.ShowShortcuts {
		rightText = s.theme.ShortcutKey.Render("^N") + s.theme.ShortcutDesc.Render(" new ") +
			s.theme.ShortcutKey.Render("^R") + s.theme.ShortcutDesc.Render(" rag ") +
			s.theme.ShortcutKey.Render("^C") + s.theme.ShortcutDesc.Render(" quit")
	}

	gap := s.Width - lipgloss.Width(leftText) - lipgloss.Width(rightText) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Width(s.Width).Render(
		leftText + strings.Repeat(" ", gap) + rightText,
	)
}
