// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ragchat/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Tab identifies a top-level view in the navigation bar.
type Tab int

const (
	TabChat Tab = iota
	TabRAG
)

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabChat:
		return "Chat"
	case TabRAG:
		return "Documents"
	default:
		return "?"
	}
}

// Header is the top navigation bar: brand, view tabs, and the signed-in
// user with a logout hint.
type Header struct {
	Active   Tab
	UserName string
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a new header component.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Active: TabChat,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// Render draws the header bar.
func (h *Header) Render() string {
	brand := h.theme.HeaderBrand.Render("ragchat")

	var tabs []string
	for _, tab := range []Tab{TabChat, TabRAG} {
		if tab == h.Active {
			tabs = append(tabs, h.theme.TabActive.Render(tab.String()))
		} else {
			tabs = append(tabs, h.theme.Tab.Render(tab.String()))
		}
	}
	left := brand + " " + strings.Join(tabs, "")

	right := ""
	if h.UserName != "" {
		right = h.theme.HeaderUser.Render(h.UserName) + " " +
			h.theme.ShortcutKey.Render("^L") + h.theme.ShortcutDesc.Render(" logout")
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return h.theme.Header.Width(h.Width).Render(
		left + strings.Repeat(" ", gap) + right,
	)
}
