// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/auth"
	"github.com/morganforge/ragchat/internal/config"
	"github.com/morganforge/ragchat/internal/ui/chat"
	"github.com/morganforge/ragchat/internal/ui/components"
	"github.com/morganforge/ragchat/internal/ui/login"
	"github.com/morganforge/ragchat/internal/ui/rag"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

func newTestApp() Model {
	gate := auth.NewGate(auth.NewCredentialsProvider())
	gate.Resolve()
	client := api.NewClient("http://localhost:8000")
	return New(styles.NewTheme(), client, gate, config.Default())
}

func TestStartsLocked(t *testing.T) {
	m := newTestApp()
	if m.gate.Unlocked() {
		t.Fatal("app must start behind the gate")
	}
	if m.mounted {
		t.Fatal("gated views must not mount before sign-in")
	}
}

func TestSignInMountsViews(t *testing.T) {
	m := newTestApp()
	m.width, m.height = 100, 30

	next, cmd := m.Update(login.SubmitMsg{Email: "user@example.com", Password: "password"})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("submit should dispatch a sign-in command")
	}
	result := cmd().(login.ResultMsg)
	if result.Err != nil {
		t.Fatalf("sign-in failed: %v", result.Err)
	}

	next, _ = m.Update(result)
	m = next.(Model)
	if !m.mounted {
		t.Error("views should mount after successful sign-in")
	}
	if m.header.UserName == "" {
		t.Error("header should show the signed-in user")
	}
}

func TestRejectedSignInStaysLocked(t *testing.T) {
	m := newTestApp()

	_, cmd := m.Update(login.SubmitMsg{Email: "user@example.com", Password: "wrong"})
	result := cmd().(login.ResultMsg)
	if result.Err == nil {
		t.Fatal("wrong password should be rejected")
	}

	next, _ := m.Update(result)
	m = next.(Model)
	if m.mounted || m.gate.Unlocked() {
		t.Error("rejected sign-in must leave the gate locked")
	}
}

func signedInApp(t *testing.T) Model {
	t.Helper()
	m := newTestApp()
	m.width, m.height = 100, 30

	_, cmd := m.Update(login.SubmitMsg{Email: "user@example.com", Password: "password"})
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !m.mounted {
		t.Fatal("sign-in did not mount the views")
	}
	return m
}

func TestUploadDoneReachesRagViewFromChatTab(t *testing.T) {
	m := signedInApp(t)
	m.header.Active = components.TabChat

	done := rag.UploadDoneMsg{Details: &api.UploadDetails{Filename: "guide.pdf", Chunks: 5}}
	_, cmd := m.Update(done)
	if cmd == nil {
		t.Fatal("a completed upload should announce a toast")
	}
	toast, ok := cmd().(components.ToastAddMsg)
	if !ok || toast.Kind != components.ToastKindSuccess {
		t.Fatalf("toast = %#v, want a success toast", toast)
	}
}

func TestChatSentReachesChatViewFromRagTab(t *testing.T) {
	m := signedInApp(t)
	m.header.Active = components.TabRAG

	next, cmd := m.Update(chat.ChatSentMsg{Err: errors.New("backend unavailable")})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("a failed send should announce a toast")
	}
	toast, ok := cmd().(components.ToastAddMsg)
	if !ok || toast.Kind != components.ToastKindError {
		t.Fatalf("toast = %#v, want an error toast", toast)
	}
	if m.chat.Flow().Pending() {
		t.Error("the chat workflow must settle when its send completes")
	}
}

func TestSignOutUnmountsViews(t *testing.T) {
	m := newTestApp()
	m.width, m.height = 100, 30

	_, cmd := m.Update(login.SubmitMsg{Email: "user@example.com", Password: "password"})
	result := cmd().(login.ResultMsg)
	next, _ := m.Update(result)
	m = next.(Model)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if cmd == nil {
		t.Fatal("logout should dispatch a sign-out command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.mounted || m.gate.Unlocked() {
		t.Error("sign-out must lock the gate and unmount the views")
	}
}
