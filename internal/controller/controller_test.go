// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/settings"
)

// fakeGateway is an in-memory backend: conversations keyed by id, chat
// sends append messages and create conversations on demand. Call counters
// let tests assert when the network was (not) touched.
type fakeGateway struct {
	conversations map[string]*model.Conversation
	order         []string
	nextID        int

	sendErr   error
	listCalls int
	getCalls  int
	sendCalls int

	lastChat api.ChatRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{conversations: map[string]*model.Conversation{}}
}

func (f *fakeGateway) seed(id, title string) {
	f.conversations[id] = &model.Conversation{ID: id, Title: title}
	f.order = append(f.order, id)
}

func (f *fakeGateway) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	f.listCalls++
	out := make([]*model.Conversation, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.conversations[id])
	}
	return out, nil
}

func (f *fakeGateway) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	f.getCalls++
	c, ok := f.conversations[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return c, nil
}

func (f *fakeGateway) DeleteConversation(ctx context.Context, id string) error {
	if _, ok := f.conversations[id]; !ok {
		return api.ErrNotFound
	}
	delete(f.conversations, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeGateway) SendChat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.sendCalls++
	f.lastChat = req
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id := req.ConversationID
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("conv-%d", f.nextID)
		f.seed(id, req.Message)
	}
	c := f.conversations[id]
	c.Messages = append(c.Messages,
		&model.Message{Role: model.RoleUser, Content: req.Message},
		&model.Message{Role: model.RoleAssistant, Content: "reply to " + req.Message},
	)
	return &api.ChatResponse{ConversationID: id, Response: "reply to " + req.Message}, nil
}

func TestSendEmptyMessageSkipsNetwork(t *testing.T) {
	gw := newFakeGateway()
	s := NewSession(gw)

	for _, msg := range []string{"", "   ", "\t\n"} {
		if err := s.Send(context.Background(), msg, settings.New()); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", msg, err)
		}
	}
	if gw.sendCalls != 0 {
		t.Errorf("sendCalls = %d, want 0 for blank input", gw.sendCalls)
	}
}

func TestSendFromNoActiveAdoptsBackendConversation(t *testing.T) {
	gw := newFakeGateway()
	s := NewSession(gw)

	if err := s.Send(context.Background(), "hello", settings.New()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s.ActiveID() != "conv-1" {
		t.Errorf("active = %q, want backend-assigned conv-1", s.ActiveID())
	}
	found := false
	for _, c := range s.Conversations() {
		if c.ID == "conv-1" {
			found = true
		}
	}
	if !found {
		t.Error("refreshed listing does not contain the new conversation")
	}
	if got := s.Active().MessageCount(); got != 2 {
		t.Errorf("active transcript has %d messages, want 2", got)
	}
}

func TestSendOnActiveConversationKeepsID(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-9", "existing")
	s := NewSession(gw)
	if err := s.Select(context.Background(), "conv-9"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if err := s.Send(context.Background(), "more", settings.New()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s.ActiveID() != "conv-9" {
		t.Errorf("active = %q, want conv-9", s.ActiveID())
	}
	if gw.lastChat.ConversationID != "conv-9" {
		t.Errorf("request carried conversation_id %q, want conv-9", gw.lastChat.ConversationID)
	}
}

func TestSendCarriesSettings(t *testing.T) {
	gw := newFakeGateway()
	s := NewSession(gw)

	cfg := settings.New()
	cfg.UseRAG = true
	cfg.CollectionName = "papers"
	cfg.ModelID = "mixtral-8x7b-32768"
	cfg.APIKey = "  gsk_key  "
	if err := s.Send(context.Background(), "q", cfg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !gw.lastChat.UseRAG || gw.lastChat.CollectionName != "papers" {
		t.Errorf("RAG settings not carried: %+v", gw.lastChat)
	}
	if gw.lastChat.APIKey != "gsk_key" {
		t.Errorf("api key = %q, want trimmed value", gw.lastChat.APIKey)
	}
}

func TestSendFailureLeavesStateUntouched(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "kept")
	s := NewSession(gw)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	gw.sendErr = &api.BackendError{Status: 429, Detail: "rate limited"}
	err := s.Send(context.Background(), "hello", settings.New())
	if err == nil {
		t.Fatal("Send should fail")
	}
	if got := api.Detail(err, "fallback"); got != "rate limited" {
		t.Errorf("detail = %q, want backend's wording", got)
	}
	if s.ActiveID() != "conv-1" {
		t.Errorf("active = %q, failure must not move the selection", s.ActiveID())
	}
	if len(s.Conversations()) != 1 {
		t.Errorf("listing mutated on failure: %d entries", len(s.Conversations()))
	}
}

func TestSelectUsesCachedListing(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "cached")
	s := NewSession(gw)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.ActiveID() != "conv-1" {
		t.Errorf("active = %q, want conv-1", s.ActiveID())
	}
	if gw.getCalls != 0 {
		t.Errorf("getCalls = %d, selecting a cached conversation costs no round-trip", gw.getCalls)
	}
}

func TestSelectUnknownIDFallsBackToFetch(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "not cached yet")
	s := NewSession(gw)

	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.ActiveID() != "conv-1" || gw.getCalls != 1 {
		t.Errorf("active = %q getCalls = %d, want a single backend fetch", s.ActiveID(), gw.getCalls)
	}
}

func TestSendTransmitsTrimmedMessage(t *testing.T) {
	gw := newFakeGateway()
	s := NewSession(gw)

	if err := s.Send(context.Background(), "  hello  \n", settings.New()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gw.lastChat.Message != "hello" {
		t.Errorf("transmitted message = %q, want the trimmed text", gw.lastChat.Message)
	}
}

func TestDeleteActiveClearsReference(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "doomed")
	gw.seed("conv-2", "survivor")
	s := NewSession(gw)
	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if err := s.Delete(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Active() != nil {
		t.Error("deleting the active conversation must clear the reference")
	}
	if len(s.Conversations()) != 1 || s.Conversations()[0].ID != "conv-2" {
		t.Errorf("listing after delete = %+v, want only conv-2", s.Conversations())
	}
}

func TestDeleteOtherKeepsActive(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "keep me")
	gw.seed("conv-2", "doomed")
	s := NewSession(gw)
	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	lists := gw.listCalls

	if err := s.Delete(context.Background(), "conv-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.ActiveID() != "conv-1" {
		t.Errorf("active = %q, deleting another conversation must not move it", s.ActiveID())
	}
	if gw.listCalls != lists+1 {
		t.Error("delete must refresh the listing")
	}
}

func TestDeleteFailureLeavesCache(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "kept")
	s := NewSession(gw)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("Delete = %v, want ErrNotFound", err)
	}
	if len(s.Conversations()) != 1 {
		t.Error("failed delete must not touch the cached listing")
	}
}

func TestRefreshDropsVanishedActive(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "here today")
	s := NewSession(gw)
	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	// Another client deleted it server-side.
	delete(gw.conversations, "conv-1")
	gw.order = nil
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Active() != nil {
		t.Error("active reference must clear when the backend no longer lists it")
	}
}

func TestStartNewClearsActive(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("conv-1", "old")
	s := NewSession(gw)
	if err := s.Select(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	s.StartNew()
	if s.Active() != nil {
		t.Error("StartNew must clear the active reference")
	}
	if gw.sendCalls != 0 {
		t.Error("StartNew must not touch the network")
	}
}
