// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and model descriptors as reported by the backend.
package model

import (
	"time"

	"github.com/morganforge/ragchat/internal/util"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat conversation as the backend reports it. The
// backend assigns identifiers and generates titles; the client never
// synthesizes either. An unsaved conversation has no Conversation value at
// all — "no active conversation" is a nil reference, never an empty ID.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GetTitle returns the conversation title or a placeholder.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "Untitled"
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Preview returns a short single-line preview of the conversation title
// for sidebar rendering.
func (c *Conversation) Preview(maxLen int) string {
	return util.TruncateRunes(c.GetTitle(), maxLen)
}

// FormatUpdatedAt renders the last-update time for sidebar display.
func (c *Conversation) FormatUpdatedAt() string {
	return formatTimestamp(c.UpdatedAt, time.Now())
}

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// ModelDescriptor describes one entry of the backend's available-models
// listing.
type ModelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Label renders the descriptor for display, "name (provider)".
func (m ModelDescriptor) Label() string {
	if m.Provider == "" {
		return m.Name
	}
	return m.Name + " (" + m.Provider + ")"
}

// =============================================================================
// QUERY SOURCE
// =============================================================================

// Source is one ranked excerpt returned by a direct query.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Origin returns the source document name from the metadata, if the
// backend included one.
func (s Source) Origin() string {
	if v, ok := s.Metadata["source"]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}
