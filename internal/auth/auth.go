// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth authenticates admin users against the user store and keeps
// their sessions in the session store. Observers can subscribe to sign-in
// and sign-out events; the Gate type turns those events into the admin
// view's login state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pquerna/otp/totp"

	"kasetinfo/internal/models"
	"kasetinfo/internal/session"
)

// ErrInvalidCredentials is returned for every failed sign-in. Unknown email,
// wrong password, and a bad one-time code are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("อีเมลหรือรหัสผ่านไม่ถูกต้อง")

// Sessions is the session backend.
type Sessions interface {
	Create(ctx context.Context, data *session.Data) (string, error)
	Get(ctx context.Context, token string) (*session.Data, error)
	Delete(ctx context.Context, token string) error
}

// Users is the user lookup the service authenticates against.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// EventKind distinguishes session lifecycle events.
type EventKind int

const (
	EventSignedIn EventKind = iota + 1
	EventSignedOut
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event is delivered to subscribers on sign-in and sign-out. Session is nil
// for sign-out events.
type Event struct {
	Kind    EventKind
	Token   string
	Session *session.Data
}

// Service is the auth client used by the HTTP layer.
type Service struct {
	sessions Sessions
	users    Users

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewService creates an auth service.
func NewService(sessions Sessions, users Users) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		subs:     make(map[int]func(Event)),
	}
}

// Session returns the session for token, or nil when there is none.
func (s *Service) Session(ctx context.Context, token string) (*session.Data, error) {
	data, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("auth session: %w", err)
	}
	return data, nil
}

// SignIn verifies the credentials and opens a session. When the user has
// two-factor authentication enabled, code must be a valid TOTP code.
// Credential failures return ErrInvalidCredentials; backend failures
// return a wrapped error.
func (s *Service) SignIn(ctx context.Context, email, password, code string) (string, *session.Data, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("auth sign in: %w", err)
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return "", nil, ErrInvalidCredentials
	}
	if user.RequiresOTP() && !totp.Validate(strings.TrimSpace(code), *user.TOTPSecret) {
		return "", nil, ErrInvalidCredentials
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}
	token, err := s.sessions.Create(ctx, data)
	if err != nil {
		return "", nil, fmt.Errorf("auth sign in: %w", err)
	}

	s.publish(Event{Kind: EventSignedIn, Token: token, Session: data})
	return token, data, nil
}

// SignOut ends the session for token. Signing out without a session is
// not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("auth sign out: %w", err)
	}
	s.publish(Event{Kind: EventSignedOut, Token: token})
	return nil
}

// LogEvent writes a log line for a session event. It is meant to be
// registered with Subscribe.
func LogEvent(e Event) {
	switch {
	case e.Kind == EventSignedIn && e.Session != nil:
		slog.Info("user signed in", "user_id", e.Session.UserID, "email", e.Session.Email)
	case e.Kind == EventSignedOut:
		slog.Info("user signed out")
	}
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs synchronously on the goroutine that caused the event.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) publish(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
