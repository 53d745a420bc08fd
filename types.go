package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthService is the remote auth service boundary. Implementations perform
// the actual credential exchange; the session core only consumes results.
// Every failure carries a human-readable message.
type AuthService interface {
	Login(ctx context.Context, payload Credentials) (*AuthResult, error)
	AdminSignup(ctx context.Context, payload AdminSignup) (*AuthResult, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, payload ForgotPassword) (*ResetConfirmation, error)
	ResetPassword(ctx context.Context, payload ResetPassword) (*ResetConfirmation, error)
	ChangePasswordFirstLogin(ctx context.Context, payload ChangePassword) (*User, error)
	CurrentUser(ctx context.Context) (*User, error)
}

// Persistence is a durable key-value capability holding the serialized user
// projection. Get returns (nil, nil) when the key is absent; absence means
// logged out.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// NavigateFunc is the navigation collaborator used by the expiry handler.
type NavigateFunc func(path string)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
