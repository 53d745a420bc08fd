package session

import (
	"context"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
)

// Manager runs the asynchronous auth operations against the AuthService and
// applies their results to the Store. Identity-affecting operations (sign
// in, sign out, current-user refresh) drive the loading flag; the other
// operations drive the shared loader. Completions carry a monotonic token
// so a stale completion never overwrites newer session state.
type Manager struct {
	store   *Store
	service AuthService
	tokens  *TokenHolder
	timer   *ExpiryTimer
	logger  Logger
	seq     atomic.Uint64
}

// ManagerOption customizes Manager construction.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the logger.
func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTokenHolder shares a token holder with the HTTP client.
func WithTokenHolder(tokens *TokenHolder) ManagerOption {
	return func(m *Manager) {
		if tokens != nil {
			m.tokens = tokens
		}
	}
}

// WithExpiryTimer enables proactive expiry tracking of issued tokens.
func WithExpiryTimer(timer *ExpiryTimer) ManagerOption {
	return func(m *Manager) {
		m.timer = timer
	}
}

func NewManager(store *Store, service AuthService, opts ...ManagerOption) *Manager {
	if store == nil {
		panic("session: Manager requires a Store")
	}
	if service == nil {
		panic("session: Manager requires an AuthService")
	}

	m := &Manager{
		store:   store,
		service: service,
		tokens:  NewTokenHolder(),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Tokens exposes the bearer token holder for transport wiring.
func (m *Manager) Tokens() *TokenHolder {
	return m.tokens
}

// Login signs the user in. On success the session holds the new identity;
// when the response marks the account for a forced password change the
// caller is expected to route to the reset flow instead of a dashboard.
func (m *Manager) Login(ctx context.Context, payload Credentials) (*AuthResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign in payload")
	}

	op := m.begin()

	result, err := m.service.Login(ctx, payload)
	if err != nil {
		m.fail(op, err, true)
		return nil, err
	}

	m.completeIdentity(op, result)
	return result, nil
}

// AdminSignup registers an admin account, with the same completion contract
// as Login.
func (m *Manager) AdminSignup(ctx context.Context, payload AdminSignup) (*AuthResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign up payload")
	}

	op := m.begin()

	result, err := m.service.AdminSignup(ctx, payload)
	if err != nil {
		m.fail(op, err, true)
		return nil, err
	}

	m.completeIdentity(op, result)
	return result, nil
}

// SignedOutLocallyMessage is the toast shown when remote sign out fails but
// the local session is cleared anyway.
const SignedOutLocallyMessage = "Signed out on this device, but the server could not be reached."

// Logout performs best-effort remote invalidation. Whatever the remote
// outcome, the session ends logged out before Logout returns.
func (m *Manager) Logout(ctx context.Context) error {
	op := m.begin()

	err := m.service.Logout(ctx)

	m.tokens.Clear()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.store.ClearAuth()
	if m.current(op) {
		m.store.SetLoading(false)
	}

	if err != nil {
		// ClearAuth already wiped the error slot; the toast is the one
		// surface left for the remote failure
		m.logger.Warn("remote sign out failed, session cleared locally: %s", err)
		m.store.ShowToast(SignedOutLocallyMessage, ToastWarning, 0)
		return err
	}
	return nil
}

// ForgotPassword requests a reset. The session is untouched, nobody is
// authenticated yet, so only the shared loader runs.
func (m *Manager) ForgotPassword(ctx context.Context, payload ForgotPassword) (*ResetConfirmation, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid forgot password payload")
	}

	m.store.ShowLoader()
	m.store.ClearError()
	defer m.store.HideLoader()

	confirmation, err := m.service.ForgotPassword(ctx, payload)
	if err != nil {
		m.recordFailure(err, true)
		return nil, err
	}

	return confirmation, nil
}

// ResetPassword completes a reset. A normal reset leaves the session alone;
// a first-login reset carries a refreshed user which replaces the current
// one and clears the first-login flag.
func (m *Manager) ResetPassword(ctx context.Context, payload ResetPassword) (*ResetConfirmation, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset password payload")
	}

	m.store.ShowLoader()
	m.store.ClearError()
	defer m.store.HideLoader()

	confirmation, err := m.service.ResetPassword(ctx, payload)
	if err != nil {
		m.recordFailure(err, true)
		return nil, err
	}

	if confirmation != nil && confirmation.User != nil {
		m.store.SetUser(confirmation.User)
		m.store.SetFirstLogin(false)
	}

	return confirmation, nil
}

// ChangePasswordFirstLogin performs the mandatory first-login password
// change and installs the refreshed identity.
func (m *Manager) ChangePasswordFirstLogin(ctx context.Context, payload ChangePassword) (*User, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid change password payload")
	}

	m.store.ShowLoader()
	m.store.ClearError()
	defer m.store.HideLoader()

	user, err := m.service.ChangePasswordFirstLogin(ctx, payload)
	if err != nil {
		m.recordFailure(err, true)
		return nil, err
	}

	m.store.SetUser(user)
	m.store.SetFirstLogin(false)

	return user, nil
}

// CurrentUser is the boot read-through. A failure leaves the session logged
// out and is surfaced to the initializer for logging only. No session on a
// first visit is a normal condition, not a toastable error.
func (m *Manager) CurrentUser(ctx context.Context) (*User, error) {
	op := m.begin()

	user, err := m.service.CurrentUser(ctx)
	if err != nil {
		if m.current(op) {
			if IsUnauthorizedError(err) {
				m.tokens.Clear()
				m.store.ClearAuth()
			}
			m.store.SetLoading(false)
		}
		return nil, err
	}

	if m.current(op) {
		m.store.SetUser(user)
		m.store.SetFirstLogin(user != nil && user.IsFirstLogin)
		m.store.SetLoading(false)
	}

	return user, nil
}

// begin opens an identity-affecting operation: loading up, prior error
// cleared, completion token issued.
func (m *Manager) begin() uint64 {
	op := m.seq.Add(1)
	m.store.SetLoading(true)
	m.store.ClearError()
	return op
}

func (m *Manager) current(op uint64) bool {
	return m.seq.Load() == op
}

// completeIdentity applies a login/signup result. The store mutation lands
// before loading drops so no observer sees loading=false with a stale user.
func (m *Manager) completeIdentity(op uint64, result *AuthResult) {
	if !m.current(op) {
		m.logger.Debug("discarding stale auth completion")
		return
	}

	m.tokens.Set(result.Token)
	if m.timer != nil {
		m.timer.Track(result.Token)
	}

	m.store.SetUser(result.User)
	m.store.SetFirstLogin(result.RequiresPasswordChange())
	m.store.SetLoading(false)
}

func (m *Manager) fail(op uint64, err error, toast bool) {
	if !m.current(op) {
		m.logger.Debug("discarding stale auth failure: %s", err)
		return
	}
	m.recordFailure(err, toast)
	m.store.SetLoading(false)
}

// recordFailure stores the failure and surfaces it as an error toast. The
// error is still re-raised to the caller by every operation.
func (m *Manager) recordFailure(err error, toast bool) {
	m.store.SetError(err)
	if toast {
		m.store.ShowToast(FailureMessage(err), ToastError, 0)
	}
}
