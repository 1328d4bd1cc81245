// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/morganforge/ragchat/internal/util"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a conversation. Messages are owned by the
// backend and immutable once received; the client only appends what the
// server reports.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser returns true for user-authored messages.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true for assistant-authored messages.
func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Preview returns a single-line preview of the message content,
// truncated to maxLen runes.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.FirstLine(m.Content), maxLen)
}

// FormatTimestamp renders the message timestamp for display: time only for
// today, weekday and time within the last week, full date otherwise.
func (m *Message) FormatTimestamp() string {
	return formatTimestamp(m.Timestamp, time.Now())
}

// formatTimestamp is split out so tests can pin "now".
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("Jan 2 15:04")
}
