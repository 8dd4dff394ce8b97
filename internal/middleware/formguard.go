// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// formTokensKey is the session key holding outstanding form tokens.
const formTokensKey = "form_tokens"

// maxFormTokens caps how many unconsumed tokens a session may hold; the
// oldest are dropped first. Twenty covers any realistic number of
// concurrently open forms.
const maxFormTokens = 20

// FormGuard issues one-time tokens for mutating forms. Each token is
// embedded in a rendered form and burned on first use, so a resubmitted or
// replayed form is rejected before any backend call is made.
type FormGuard struct {
	manager *scs.SessionManager
}

// NewFormGuard creates a FormGuard over the given session manager.
func NewFormGuard(manager *scs.SessionManager) *FormGuard {
	return &FormGuard{manager: manager}
}

// Issue creates a new one-time token and records it in the session.
func (g *FormGuard) Issue(ctx context.Context) string {
	token := uuid.NewString()

	tokens := g.load(ctx)
	tokens = append(tokens, token)
	if len(tokens) > maxFormTokens {
		tokens = tokens[len(tokens)-maxFormTokens:]
	}
	g.save(ctx, tokens)

	return token
}

// Consume validates and burns a token. It returns true exactly once per
// issued token; unknown, empty, and already-consumed tokens return false.
func (g *FormGuard) Consume(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	tokens := g.load(ctx)
	for i, t := range tokens {
		if t == token {
			g.save(ctx, append(tokens[:i], tokens[i+1:]...))
			return true
		}
	}
	return false
}

func (g *FormGuard) load(ctx context.Context) []string {
	raw := g.manager.GetString(ctx, formTokensKey)
	if raw == "" {
		return nil
	}

	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil
	}
	return tokens
}

func (g *FormGuard) save(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		g.manager.Remove(ctx, formTokensKey)
		return
	}

	raw, err := json.Marshal(tokens)
	if err != nil {
		return
	}
	g.manager.Put(ctx, formTokensKey, string(raw))
}
