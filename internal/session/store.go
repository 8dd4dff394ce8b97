// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session persists the authenticated state between requests. The
// scs session manager owns the cookie and storage; Store layers the typed
// token + user pair on top of it.
package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alexedwards/scs/v2"

	"github.com/kiorffen/blogfront/internal/model"
)

// Session keys for the authenticated state.
const (
	keyToken = "auth_token"
	keyUser  = "auth_user"
)

// ErrCorrupt reports that the stored user record could not be parsed.
// The invalid state has already been cleared when this is returned.
var ErrCorrupt = errors.New("session: stored user record is corrupt")

// Store reads and writes the authenticated session state.
type Store struct {
	manager *scs.SessionManager
}

// NewStore creates a Store over the given session manager.
func NewStore(manager *scs.SessionManager) *Store {
	return &Store{manager: manager}
}

// Manager exposes the underlying session manager for middleware wiring.
func (s *Store) Manager() *scs.SessionManager {
	return s.manager
}

// Load returns the current session, or nil when the visitor is not logged
// in. A present token with an unparsable user record is treated as corrupt:
// both keys are cleared and ErrCorrupt is returned so callers can decide
// whether to force navigation.
func (s *Store) Load(ctx context.Context) (*model.Session, error) {
	token := s.manager.GetString(ctx, keyToken)
	rawUser := s.manager.GetString(ctx, keyUser)
	if token == "" || rawUser == "" {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.Clear(ctx)
		return nil, ErrCorrupt
	}

	return &model.Session{Token: token, User: user}, nil
}

// Save stores the authenticated state after a successful login. The
// session token is renewed first to prevent fixation.
func (s *Store) Save(ctx context.Context, token string, user model.User) error {
	if err := s.manager.RenewToken(ctx); err != nil {
		return err
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.manager.Put(ctx, keyToken, token)
	s.manager.Put(ctx, keyUser, string(rawUser))
	return nil
}

// Clear removes the authenticated state. Other session data, such as a
// pending flash message, survives.
func (s *Store) Clear(ctx context.Context) {
	s.manager.Remove(ctx, keyToken)
	s.manager.Remove(ctx, keyUser)
}
