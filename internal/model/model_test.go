// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestConversationTitleFallback(t *testing.T) {
	c := &Conversation{ID: "conv-1"}
	if c.GetTitle() != "Untitled" {
		t.Errorf("GetTitle = %q", c.GetTitle())
	}
	c.Title = "Quarterly report"
	if c.GetTitle() != "Quarterly report" {
		t.Errorf("GetTitle = %q", c.GetTitle())
	}
}

func TestConversationLastMessage(t *testing.T) {
	c := &Conversation{}
	if !c.IsEmpty() || c.GetLastMessage() != nil {
		t.Error("empty conversation should have no last message")
	}
	c.Messages = []*Message{
		{ID: "m1", Role: RoleUser, Content: "hi"},
		{ID: "m2", Role: RoleAssistant, Content: "hello"},
	}
	if c.MessageCount() != 2 {
		t.Errorf("MessageCount = %d", c.MessageCount())
	}
	last := c.GetLastMessage()
	if last == nil || last.ID != "m2" || !last.IsAssistant() {
		t.Errorf("last message = %+v", last)
	}
}

func TestMessagePreviewSingleLine(t *testing.T) {
	m := &Message{Content: "first line\nsecond line"}
	if got := m.Preview(40); got != "first line" {
		t.Errorf("Preview = %q", got)
	}
	long := &Message{Content: "a message that definitely runs past the limit"}
	got := long.Preview(10)
	if len([]rune(got)) > 10 {
		t.Errorf("Preview not truncated: %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2025, 3, 15, 9, 5, 0, 0, time.UTC), "09:05"},
		{"this week", time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC), "Wed 18:00"},
		{"older", time.Date(2025, 1, 2, 8, 15, 0, 0, time.UTC), "Jan 2 08:15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.t, now); got != tt.want {
				t.Errorf("formatTimestamp = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModelDescriptorLabel(t *testing.T) {
	if got := (ModelDescriptor{Name: "Llama", Provider: "groq"}).Label(); got != "Llama (groq)" {
		t.Errorf("Label = %q", got)
	}
	if got := (ModelDescriptor{Name: "Llama"}).Label(); got != "Llama" {
		t.Errorf("Label = %q", got)
	}
}

func TestSourceOrigin(t *testing.T) {
	s := Source{Metadata: map[string]any{"source": "x.pdf"}}
	if s.Origin() != "x.pdf" {
		t.Errorf("Origin = %q", s.Origin())
	}
	if (Source{}).Origin() != "" {
		t.Error("missing metadata should yield empty origin")
	}
	if (Source{Metadata: map[string]any{"source": 42}}).Origin() != "" {
		t.Error("non-string source should yield empty origin")
	}
}
