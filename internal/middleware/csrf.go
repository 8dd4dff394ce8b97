// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig configures cross-site request forgery protection. The
// underlying filippo.io/csrf/gorilla library works off Fetch metadata
// headers, so there are no cookie settings here.
type CSRFConfig struct {
	// AuthKey is the 32-byte token authentication key. The session
	// secret doubles as this key.
	AuthKey []byte

	// ErrorHandler runs when validation fails. Nil gets a plain 403.
	ErrorHandler http.Handler

	// TrustedOrigins may submit cross-origin requests. Host-only
	// values, not full URLs.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns the standard CSRF setup. In development the
// localhost origins are trusted so form posts work without TLS.
func DefaultCSRFConfig(authKey []byte, isDev bool, serverPort int) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	if isDev {
		cfg.TrustedOrigins = []string{
			fmt.Sprintf("localhost:%d", serverPort),
			fmt.Sprintf("127.0.0.1:%d", serverPort),
		}
	}

	return cfg
}

// CSRF builds the protection middleware from cfg.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	opts := []csrf.Option{}

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reasonStr := "unknown"
	if reason := csrf.FailureReason(r); reason != nil {
		reasonStr = reason.Error()
	}
	slog.Error("CSRF validation failed",
		"reason", reasonStr,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
