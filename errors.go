package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeSessionExpired     = "SESSION_EXPIRED"
	textCodeRoleNotAllowed     = "ROLE_NOT_ALLOWED"
	textCodeAuthUnreachable    = "AUTH_SERVICE_UNREACHABLE"
)

// ErrNotAuthenticated is returned when an operation requires a signed-in user.
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(textCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the remote rejection for bad sign-in attempts.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired marks an authorization failure after the session
// believed it was authenticated.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleNotAllowed is the guard rejection for authenticated users outside
// a route's allow-list.
var ErrRoleNotAllowed = goerrors.New("role not allowed for this area", goerrors.CategoryAuth).
	WithTextCode(textCodeRoleNotAllowed).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoUser is returned by helpers that need a present user record.
var ErrNoUser = goerrors.New("no user record", goerrors.CategoryBadInput).
	WithTextCode("NO_USER").
	WithCode(goerrors.CodeBadRequest)

// IsSessionExpiredError checks for the forced-expiry rejection.
func IsSessionExpiredError(err error) bool {
	return hasTextCode(err, textCodeSessionExpired)
}

// IsUnauthorizedError checks for any auth-category rejection.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// FailureMessage extracts the human-readable message an operation should
// surface for a failure.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return err.Error()
}
