// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI.
//
// This file defines the Bubble Tea commands that talk to the backend.
// Mutating operations are serialized through the view's workflow, so at
// most one of these runs at a time; the session is only touched from the
// command that holds the pending slot.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ragchat/internal/controller"
	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/settings"
)

// Backend is the slice of the API client the chat view needs beyond the
// session controller.
type Backend interface {
	ListModels(ctx context.Context) ([]model.ModelDescriptor, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// refreshCmd re-reads the conversation listing.
func refreshCmd(session *controller.Session) tea.Cmd {
	return func() tea.Msg {
		return ConversationsLoadedMsg{Err: session.Refresh(context.Background())}
	}
}

// selectCmd fetches the transcript for id and makes it active.
func selectCmd(session *controller.Session, id string) tea.Cmd {
	return func() tea.Msg {
		return ConversationSelectedMsg{ID: id, Err: session.Select(context.Background(), id)}
	}
}

// deleteCmd deletes id on the backend and refreshes the listing.
func deleteCmd(session *controller.Session, id string) tea.Cmd {
	return func() tea.Msg {
		return ConversationDeletedMsg{ID: id, Err: session.Delete(context.Background(), id)}
	}
}

// sendCmd transmits the message with the current settings. The returned
// message is tagged with the conversation that was active at dispatch so
// stale results can be recognized.
func sendCmd(session *controller.Session, text string, cfg settings.Settings) tea.Cmd {
	target := session.ActiveID()
	return func() tea.Msg {
		return ChatSentMsg{
			TargetID: target,
			Err:      session.Send(context.Background(), text, cfg),
		}
	}
}

// loadModelsCmd fetches the model listing once at mount.
func loadModelsCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		models, err := backend.ListModels(context.Background())
		return ModelsLoadedMsg{Models: models, Err: err}
	}
}

// loadCollectionsCmd fetches the collection listing. Called lazily the
// first time RAG is enabled, and again whenever the settings panel wants
// fresh names.
func loadCollectionsCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		names, err := backend.ListCollections(context.Background())
		return CollectionsLoadedMsg{Collections: names, Err: err}
	}
}
