// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the session gate in front of the application
// shell.
//
// Authentication truth lives in an identity provider, not here: the gate
// only observes the provider's answer and keeps the rest of the UI
// unreachable until it is "authenticated". The provider is an injected
// interface so the shell and controller are testable without a real
// identity system.
package auth

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Status is the provider-reported session state.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error variables for authentication failures.
var (
	// ErrInvalidCredentials indicates the provider rejected the
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotSignedIn indicates there is no session to sign out of.
	ErrNotSignedIn = errors.New("not signed in")
)

// User identifies the signed-in account as reported by the provider.
type User struct {
	ID    string
	Name  string
	Email string
}

// DisplayName returns the user's name, falling back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session is the provider's answer: a status plus, when authenticated,
// the user and an opaque token.
type Session struct {
	Status Status
	User   User
	Token  string
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider is the identity system the gate observes. Credentials are
// opaque to everything above this interface.
type Provider interface {
	// Authorize validates a credential pair and returns an
	// authenticated session, or ErrInvalidCredentials.
	Authorize(email, password string) (Session, error)

	// SignOut invalidates the given session token.
	SignOut(token string) error
}

// =============================================================================
// CREDENTIALS PROVIDER
// =============================================================================

// CredentialsProvider is a demo email/password provider. A real deployment
// would validate against a backend identity system; this mirrors the demo
// account the product ships with.
type CredentialsProvider struct {
	mu       sync.Mutex
	email    string
	password string
	user     User
	sessions map[string]bool
}

// NewCredentialsProvider creates a provider accepting the demo account.
func NewCredentialsProvider() *CredentialsProvider {
	return &CredentialsProvider{
		email:    "user@example.com",
		password: "password",
		user: User{
			ID:    "1",
			Name:  "Demo User",
			Email: "user@example.com",
		},
		sessions: make(map[string]bool),
	}
}

// Authorize implements Provider.
func (p *CredentialsProvider) Authorize(email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.TrimSpace(email) != p.email || password != p.password {
		return Session{Status: StatusUnauthenticated}, ErrInvalidCredentials
	}

	token := uuid.New().String()
	p.sessions[token] = true
	return Session{
		Status: StatusAuthenticated,
		User:   p.user,
		Token:  token,
	}, nil
}

// SignOut implements Provider.
func (p *CredentialsProvider) SignOut(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sessions[token] {
		return ErrNotSignedIn
	}
	delete(p.sessions, token)
	return nil
}

// =============================================================================
// GATE
// =============================================================================

// Gate tracks the current session and decides whether the application
// shell is reachable. While the status is loading or unauthenticated the
// shell must render only the login surface; the switch to the login view
// is idempotent (repeated checks do not re-navigate).
type Gate struct {
	mu       sync.Mutex
	provider Provider
	session  Session
	redirect bool
}

// NewGate creates a gate over the given provider, starting in the
// loading state.
func NewGate(provider Provider) *Gate {
	return &Gate{
		provider: provider,
		session:  Session{Status: StatusLoading},
	}
}

// Session returns the current session snapshot.
func (g *Gate) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Status returns the current status.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Status
}

// Unlocked reports whether the shell behind the gate is reachable.
func (g *Gate) Unlocked() bool {
	return g.Status() == StatusAuthenticated
}

// Resolve moves the gate out of the loading state. With no stored
// credentials the answer is always unauthenticated; the login form is the
// only way in.
func (g *Gate) Resolve() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session.Status == StatusLoading {
		g.session = Session{Status: StatusUnauthenticated}
	}
}

// SignIn authorizes a credential pair through the provider and, on
// success, unlocks the gate.
func (g *Gate) SignIn(email, password string) error {
	session, err := g.provider.Authorize(email, password)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = session
	g.redirect = false
	return nil
}

// SignOut invalidates the session and locks the gate again. The
// post-sign-out landing surface is the login view.
func (g *Gate) SignOut() error {
	g.mu.Lock()
	token := g.session.Token
	g.mu.Unlock()

	if token == "" {
		return ErrNotSignedIn
	}
	if err := g.provider.SignOut(token); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = Session{Status: StatusUnauthenticated}
	g.redirect = false
	return nil
}

// ShouldRedirect reports whether an unauthenticated visitor still needs
// to be sent to the login surface. It returns true exactly once per
// unauthenticated episode, so repeated renders do not re-navigate.
func (g *Gate) ShouldRedirect() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session.Status != StatusUnauthenticated {
		return false
	}
	if g.redirect {
		return false
	}
	g.redirect = true
	return true
}
