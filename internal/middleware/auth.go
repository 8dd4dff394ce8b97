// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// session loading, and request protection.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiorffen/blogfront/internal/model"
	"github.com/kiorffen/blogfront/internal/session"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// ContextKeySession is the context key for the loaded session.
const ContextKeySession ContextKey = "session"

// LoadSession resolves the visitor's session, if any, and stores it in the
// request context so page chrome can react to it. A corrupt session is
// cleared and the request continues anonymously; public pages never force
// navigation.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Load(r.Context())
			if err != nil {
				if errors.Is(err, session.ErrCorrupt) {
					slog.Warn("cleared corrupt session", "path", r.URL.Path)
				}
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates the admin area. A missing, corrupt, or non-admin
// session clears the stored state and redirects to the login page; this is
// the one place the server forces navigation.
func RequireAdmin(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Load(r.Context())
			if err != nil {
				slog.Warn("admin gate rejected corrupt session", "path", r.URL.Path)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if sess == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !sess.IsAdmin() {
				slog.Warn("admin gate rejected non-admin user",
					"user_id", sess.User.ID,
					"path", r.URL.Path,
				)
				store.Clear(r.Context())
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the session from the request context. Returns nil
// for anonymous visitors.
func GetSession(r *http.Request) *model.Session {
	sess, ok := r.Context().Value(ContextKeySession).(*model.Session)
	if !ok {
		return nil
	}
	return sess
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Real-IP header (set by reverse proxies)
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Check X-Forwarded-For header
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For can contain multiple IPs; take the first one
		return ip
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}
