// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view: sidebar with the listing,
// transcript viewport, message input, and the collapsible settings panel.
//
// This file defines all Bubble Tea message types used by the chat view.
// Backend results that relate to a conversation carry the identifier they
// were dispatched for; results whose target no longer matches the session
// are dropped rather than applied.
package chat

import (
	"github.com/morganforge/ragchat/internal/model"
)

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationsLoadedMsg reports a listing refresh.
type ConversationsLoadedMsg struct {
	Err error
}

// ConversationSelectedMsg reports a transcript fetch for the conversation
// the user picked in the sidebar.
type ConversationSelectedMsg struct {
	ID  string
	Err error
}

// ConversationDeletedMsg reports a delete (and the refresh that follows it).
type ConversationDeletedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// ChatSentMsg reports a completed send. TargetID is the conversation that
// was active when the send was dispatched; empty means the send was meant
// to start a new conversation.
type ChatSentMsg struct {
	TargetID string
	Err      error
}

// =============================================================================
// SETTINGS MESSAGES
// =============================================================================

// ModelsLoadedMsg delivers the backend's model listing.
type ModelsLoadedMsg struct {
	Models []model.ModelDescriptor
	Err    error
}

// CollectionsLoadedMsg delivers the backend's collection listing.
type CollectionsLoadedMsg struct {
	Collections []string
	Err         error
}
