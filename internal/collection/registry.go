// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package collection maintains the client's view of document collections.
//
// The backend is the system of record; a collection becomes real only when
// a document is uploaded into it. Until then a user-proposed name exists
// purely in this session's memory. The registry keeps the two origins
// distinguishable — confirmed (server-reported) vs proposed (local only) —
// even though selector UIs render them identically. A proposal that is
// never backed by an upload is lost on restart; this is accepted behavior.
package collection

import (
	"errors"
	"sort"
	"strings"
)

// DefaultName is the collection offered when the backend reports none.
const DefaultName = "default_collection"

// Error variables for proposal validation.
var (
	// ErrEmptyName indicates the proposed name was empty after trimming.
	ErrEmptyName = errors.New("collection name is empty")

	// ErrNameExists indicates a case-sensitive collision with a known name.
	ErrNameExists = errors.New("collection already exists")
)

// Origin distinguishes how a name entered the registry.
type Origin int

const (
	// OriginConfirmed means the backend reported the name.
	OriginConfirmed Origin = iota
	// OriginProposed means the user named it this session; no upload has
	// backed it yet.
	OriginProposed
)

// Entry is one selectable collection name tagged with its origin.
type Entry struct {
	Name   string
	Origin Origin
}

// Registry is the in-memory collection set. It is the sole writer of its
// own state; all mutation happens on the UI's single update loop.
type Registry struct {
	entries []Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Replace installs the backend's collection listing, discarding every
// previously confirmed entry (no merge with stale state). Proposed names
// survive unless the listing now confirms them.
func (r *Registry) Replace(names []string) {
	confirmed := make([]Entry, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		confirmed = append(confirmed, Entry{Name: name, Origin: OriginConfirmed})
	}

	for _, e := range r.entries {
		if e.Origin == OriginProposed && !seen[e.Name] {
			confirmed = append(confirmed, e)
		}
	}
	r.entries = confirmed
}

// Propose validates a new collection name: trimmed, non-empty, and no
// case-sensitive collision with any known name. On success the trimmed
// name is returned for the caller to commit.
func (r *Registry) Propose(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if r.Contains(name) {
		return "", ErrNameExists
	}
	return name, nil
}

// Commit appends a previously validated proposal to the set without
// contacting the backend. The name becomes selectable immediately and is
// indistinguishable from a confirmed name in selectors.
func (r *Registry) Commit(name string) error {
	name, err := r.Propose(name)
	if err != nil {
		return err
	}
	r.entries = append(r.entries, Entry{Name: name, Origin: OriginProposed})
	return nil
}

// Contains reports whether the exact name is known, confirmed or proposed.
func (r *Registry) Contains(name string) bool {
	for _, e := range r.entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// IsProposed reports whether the name exists only in this session.
func (r *Registry) IsProposed(name string) bool {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Origin == OriginProposed
		}
	}
	return false
}

// Names returns every selectable name, confirmed before proposed, each
// group in stable sorted order. When the registry is empty the default
// collection is offered so a selector is never blank.
func (r *Registry) Names() []string {
	if len(r.entries) == 0 {
		return []string{DefaultName}
	}

	var confirmed, proposed []string
	for _, e := range r.entries {
		if e.Origin == OriginConfirmed {
			confirmed = append(confirmed, e.Name)
		} else {
			proposed = append(proposed, e.Name)
		}
	}
	sort.Strings(confirmed)
	sort.Strings(proposed)
	return append(confirmed, proposed...)
}

// Len returns the number of known names.
func (r *Registry) Len() int {
	return len(r.entries)
}
