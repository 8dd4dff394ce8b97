// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// lockoutCap bounds the exponential backoff.
const lockoutCap = 24 * time.Hour

// LoginProtection throttles the login flow on two axes: a per-IP rate
// limit on form submissions and a per-account lockout that doubles in
// length each time an account is locked again.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	attemptsMu sync.RWMutex
	accounts   map[string]*accountState

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration
}

// accountState is the failure history of a single account.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection. Zero
// values fall back to the defaults.
type LoginProtectionConfig struct {
	// IPRateLimit is login submissions per second per IP.
	IPRateLimit float64
	// IPBurst is the burst size for the IP limiter.
	IPBurst int
	// MaxFailedAttempts locks the account when reached within the window.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout length; repeats double it.
	LockoutDuration time.Duration
	// AttemptWindow is how long failures keep counting toward a lockout.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5, // one submission per two seconds
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance and starts
// its background cleanup.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	defaults := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = defaults.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = defaults.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = defaults.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaults.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = defaults.AttemptWindow
	}

	lp := &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:          make(map[string]*accountState),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
	}

	go lp.cleanupLoop()

	return lp
}

// CheckIPRateLimit reports whether a submission from this IP is allowed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked reports whether the account is locked and for how much
// longer.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	// Copy the deadline under the lock; RecordFailedAttempt mutates the
	// entry concurrently.
	lp.attemptsMu.RLock()
	var lockedUntil time.Time
	if acct, ok := lp.accounts[username]; ok {
		lockedUntil = acct.lockedUntil
	}
	lp.attemptsMu.RUnlock()

	if !time.Now().Before(lockedUntil) {
		return false, 0
	}
	return true, time.Until(lockedUntil)
}

// RecordFailedAttempt counts a failure toward the account's lockout.
// When the failure crosses the threshold it returns true and the length
// of the lockout that was just applied.
func (lp *LoginProtection) RecordFailedAttempt(username string) (bool, time.Duration) {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	now := time.Now()
	acct, ok := lp.accounts[username]

	// First failure, or the previous window expired: start a fresh one.
	if !ok {
		lp.accounts[username] = &accountState{failures: 1, windowStart: now}
		return false, 0
	}
	if now.Sub(acct.windowStart) > lp.attemptWindow {
		acct.failures = 1
		acct.windowStart = now
		return false, 0
	}

	acct.failures++
	slog.Debug("login failure recorded", "username", username, "failures", acct.failures)

	if acct.failures < lp.maxFailedAttempts {
		return false, 0
	}

	// Threshold reached: lock, doubling per previous lockout up to the cap.
	lockDuration := lp.lockoutDuration
	for i := 0; i < acct.lockouts && lockDuration < lockoutCap; i++ {
		lockDuration *= 2
	}
	if lockDuration > lockoutCap {
		lockDuration = lockoutCap
	}

	acct.lockedUntil = now.Add(lockDuration)
	acct.lockouts++
	acct.failures = 0

	slog.Warn("account locked after repeated login failures",
		"username", username,
		"lockouts", acct.lockouts,
		"duration", lockDuration,
	)

	return true, lockDuration
}

// RecordSuccessfulLogin drops the account's failure history.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.attemptsMu.Lock()
	delete(lp.accounts, username)
	lp.attemptsMu.Unlock()
}

// GetRemainingAttempts returns how many failures the account has left
// before it is locked.
func (lp *LoginProtection) GetRemainingAttempts(username string) int {
	lp.attemptsMu.RLock()
	var (
		failures    int
		windowStart time.Time
		known       bool
	)
	if acct, ok := lp.accounts[username]; ok {
		failures = acct.failures
		windowStart = acct.windowStart
		known = true
	}
	lp.attemptsMu.RUnlock()

	if !known || time.Since(windowStart) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}

	if remaining := lp.maxFailedAttempts - failures; remaining > 0 {
		return remaining
	}
	return 0
}

func (lp *LoginProtection) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		lp.removeStaleEntries()
	}
}

func (lp *LoginProtection) removeStaleEntries() {
	if lp.ipLimiters.clearIfExceeds(10000) {
		slog.Info("cleared IP rate limiters due to size")
	}

	now := time.Now()
	lp.attemptsMu.Lock()
	for username, acct := range lp.accounts {
		if now.After(acct.lockedUntil) && now.Sub(acct.windowStart) > lp.attemptWindow {
			delete(lp.accounts, username)
		}
	}
	lp.attemptsMu.Unlock()
}

// Middleware rate-limits login form submissions per client IP. GETs pass
// through so the form itself always loads.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too many login attempts. Please slow down.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
