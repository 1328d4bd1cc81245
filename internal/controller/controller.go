// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller owns the conversation session: the cached listing,
// the active-conversation reference, and the send/select/delete operations
// against the backend. The backend is the source of truth; the controller
// never fabricates conversation state locally and re-reads after every
// mutation.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/settings"
	"github.com/morganforge/ragchat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyMessage is returned by Send for blank input; nothing is
// transmitted.
var ErrEmptyMessage = errors.New("message is empty")

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the slice of the backend client the controller needs.
// *api.Client satisfies it; tests substitute a fake.
type Gateway interface {
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SendChat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session tracks the conversation list and the active conversation for one
// signed-in user. A nil active reference means "no conversation": the next
// send creates one on the backend.
//
// The mutating operations run inside tea command goroutines while the UI
// goroutine reads the cache for rendering, so all state access goes
// through the mutex.
type Session struct {
	gateway Gateway

	mu            sync.Mutex
	conversations []*model.Conversation
	active        *model.Conversation
}

// NewSession returns a session with an empty cache and no active
// conversation.
func NewSession(gateway Gateway) *Session {
	return &Session{gateway: gateway}
}

// Conversations returns the cached listing, newest first as the backend
// reports it.
func (s *Session) Conversations() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Active returns the active conversation, or nil when none is selected.
func (s *Session) Active() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActiveID returns the active conversation's identifier, or "".
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID()
}

func (s *Session) activeID() string {
	if s.active == nil {
		return ""
	}
	return s.active.ID
}

// Refresh re-reads the conversation listing from the backend. The active
// reference is preserved when its identifier is still present and cleared
// when the backend no longer knows it.
func (s *Session) Refresh(ctx context.Context) error {
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) error {
	list, err := s.gateway.ListConversations(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = list
	if s.active == nil {
		return nil
	}
	for _, c := range list {
		if c.ID == s.active.ID {
			return nil
		}
	}
	s.active = nil
	return nil
}

// StartNew clears the active reference. No backend call happens; the
// conversation itself is created by the backend on the next send.
func (s *Session) StartNew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// Select marks the conversation with id active. The copy from the cached
// listing is used when present, so opening a conversation from the sidebar
// costs no round-trip; an id the cache does not know is fetched from the
// backend. On error the previous selection is untouched.
func (s *Session) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	for _, c := range s.conversations {
		if c.ID == id {
			s.active = c
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()
	return s.fetch(ctx, id)
}

// fetch reads the full conversation from the backend and marks it active.
func (s *Session) fetch(ctx context.Context, id string) error {
	conv, err := s.gateway.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = conv
	return nil
}

// Send transmits the trimmed message with the session's chat settings.
// Blank input fails fast with ErrEmptyMessage and touches nothing,
// including the network.
//
// When no conversation was active, the backend creates one; Send then
// refreshes the listing and fetches the new conversation so the sidebar
// and the transcript agree with the backend before it becomes active.
// When a conversation was active, Send re-fetches it to pick up both the
// user message and the reply. Any failure leaves the prior state intact.
func (s *Session) Send(ctx context.Context, message string, cfg settings.Settings) error {
	if util.IsBlank(message) {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	target := s.activeID()
	s.mu.Unlock()

	req := api.ChatRequest{
		Message:        strings.TrimSpace(message),
		ConversationID: target,
		UseRAG:         cfg.UseRAG,
		CollectionName: cfg.CollectionName,
		Model:          cfg.ModelID,
		APIKey:         cfg.NormalizedAPIKey(),
	}
	resp, err := s.gateway.SendChat(ctx, req)
	if err != nil {
		return err
	}

	if target == "" {
		// Two reads: the listing so the new conversation shows up in the
		// sidebar, then the conversation itself before it becomes active.
		if err := s.refresh(ctx); err != nil {
			return err
		}
		return s.fetch(ctx, resp.ConversationID)
	}
	return s.fetch(ctx, target)
}

// Delete removes the conversation with id on the backend. The active
// reference is cleared only when it was the one deleted; either way the
// listing is refreshed afterwards. The cache is never mutated
// optimistically.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.gateway.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	s.mu.Unlock()
	return s.refresh(ctx)
}
