// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings holds the session-scoped chat settings: selected model,
// optional API key override, RAG toggle, and collection choice.
//
// Settings live only in memory for the lifetime of the process; nothing
// here is persisted. Losing them on restart is intended.
package settings

import (
	"strings"

	"github.com/morganforge/ragchat/internal/collection"
	"github.com/morganforge/ragchat/internal/model"
)

// PreferredModelID is selected by default when the backend's model listing
// contains it.
const PreferredModelID = "deepseek-r1-distill-llama-70b"

// Settings is the ephemeral per-session configuration carried on every
// chat send.
type Settings struct {
	ModelID        string
	APIKey         string
	UseRAG         bool
	CollectionName string
}

// New returns settings with the default collection selected and no model
// resolved yet.
func New() Settings {
	return Settings{
		CollectionName: collection.DefaultName,
	}
}

// ResolveModel picks the session's model from the backend's listing: the
// preferred identifier when present, otherwise the first entry. An empty
// listing leaves the selection unset — sends still proceed and the backend
// decides what that means.
func (s *Settings) ResolveModel(models []model.ModelDescriptor) {
	if len(models) == 0 {
		s.ModelID = ""
		return
	}
	for _, m := range models {
		if m.ID == PreferredModelID {
			s.ModelID = m.ID
			return
		}
	}
	s.ModelID = models[0].ID
}

// NormalizedAPIKey returns the API key for transmission: trimmed, with an
// empty or whitespace-only key normalized to absent so the backend uses
// its own default credential.
func (s Settings) NormalizedAPIKey() string {
	return strings.TrimSpace(s.APIKey)
}

// HasModel reports whether a model selection exists.
func (s Settings) HasModel() bool {
	return s.ModelID != ""
}
