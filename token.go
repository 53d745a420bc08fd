package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenHolder keeps the bearer token in memory only. Persisted storage
// carries the user projection exclusively, never the token.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *TokenHolder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *TokenHolder) Clear() {
	h.Set("")
}

// PeekExpiry reads the exp claim without verifying the signature. The token
// is opaque to this client; verification belongs to the server. The second
// return is false when the token does not parse or carries no expiry.
func PeekExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiryTimer proactively raises the session-expired signal when the bearer
// token's exp passes, instead of waiting for the next rejected request.
type ExpiryTimer struct {
	mu     sync.Mutex
	timer  *time.Timer
	hub    *ExpiryHub
	logger Logger
}

func NewExpiryTimer(hub *ExpiryHub, logger Logger) *ExpiryTimer {
	if logger == nil {
		logger = defLogger{}
	}
	return &ExpiryTimer{hub: hub, logger: logger}
}

// Track schedules a dispatch for the token's expiry, replacing any prior
// schedule. Tokens without a readable expiry stop tracking.
func (t *ExpiryTimer) Track(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	expiresAt, ok := PeekExpiry(token)
	if !ok {
		return
	}

	delay := time.Until(expiresAt)
	if delay < 0 {
		delay = 0
	}

	t.logger.Debug("session expiry scheduled at %s", expiresAt)
	t.timer = time.AfterFunc(delay, func() {
		t.hub.Dispatch(SessionExpiredMessage)
	})
}

// Stop cancels any pending dispatch.
func (t *ExpiryTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
