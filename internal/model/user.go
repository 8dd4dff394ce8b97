// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// AdminUserID is the user ID the backend treats as the administrator.
// The flag derived from it is advisory: it gates which pages this frontend
// offers, while the backend enforces authorization on every request.
const AdminUserID = 1

// User is the authenticated account as returned by the backend login endpoint.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Session is the authenticated state kept server-side between requests:
// the backend-issued bearer token and the user it belongs to.
type Session struct {
	Token string
	User  User
}

// IsAdmin reports whether the session belongs to the administrator account.
func (s *Session) IsAdmin() bool {
	return s != nil && s.User.ID == AdminUserID
}
