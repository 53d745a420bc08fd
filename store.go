package session

import (
	"context"
	"sync"
	"time"
)

// ToastKind classifies a transient notification banner.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

// DefaultToastDuration is how long a toast stays visible unless overridden.
const DefaultToastDuration = 3 * time.Second

// DefaultStorageKey is the durable key holding the user projection.
const DefaultStorageKey = "cbt.session.user"

// Toast is the transient notification state owned by a store.
type Toast struct {
	Visible  bool
	Message  string
	Kind     ToastKind
	Duration time.Duration
}

// State is an immutable snapshot of the session. Authenticated is derived:
// it is true iff User is present.
type State struct {
	User          *User
	Authenticated bool
	Loading       bool
	Err           error
	FirstLogin    bool
	Toast         Toast
	Loader        bool
}

// Store owns the session state. All mutation happens through its methods as
// whole-value replacement; readers get copies via Snapshot. Persistence is
// synchronized on every user change, best-effort.
type Store struct {
	mu          sync.Mutex
	state       State
	persistence Persistence
	storageKey  string
	logger      Logger

	toastTimer *time.Timer
	toastGen   uint64

	subscribers map[uint64]func(State)
	nextSubID   uint64
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithStoreLogger overrides the logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPersistence injects the durable user cache. An empty key keeps the
// default.
func WithPersistence(p Persistence, key string) StoreOption {
	return func(s *Store) {
		s.persistence = p
		if key != "" {
			s.storageKey = key
		}
	}
}

// NewStore builds a store and synchronously seeds it from persisted storage
// so the first guard evaluation never races the rehydration. Corrupt
// persisted content is treated as absent.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		storageKey:  DefaultStorageKey,
		logger:      defLogger{},
		subscribers: map[uint64]func(State){},
	}

	for _, opt := range opts {
		opt(s)
	}

	if user := s.loadPersisted(); user != nil {
		s.state.User = user
		s.state.Authenticated = true
	}

	return s
}

func (s *Store) loadPersisted() *User {
	if s.persistence == nil {
		return nil
	}

	raw, err := s.persistence.Get(context.Background(), s.storageKey)
	if err != nil {
		s.logger.Warn("session store read persisted user: %s", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	user, err := decodeUser(raw)
	if err != nil {
		s.logger.Warn("session store discarding corrupt persisted user: %s", err)
		if derr := s.persistence.Delete(context.Background(), s.storageKey); derr != nil {
			s.logger.Warn("session store delete corrupt record: %s", derr)
		}
		return nil
	}

	return user.Normalized()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer called after every mutation with the new
// state. The returned function unsubscribes; calling it twice is a no-op.
func (s *Store) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SetUser replaces the current user, derives Authenticated, normalizes the
// role once at this boundary, and synchronizes persistence. Persistence
// failures are logged and never escape.
func (s *Store) SetUser(user *User) {
	user = user.Normalized()

	s.mu.Lock()
	s.state.User = user
	s.state.Authenticated = user != nil
	s.mu.Unlock()

	s.syncPersistence(user)
	s.notify()
}

func (s *Store) syncPersistence(user *User) {
	if s.persistence == nil {
		return
	}

	ctx := context.Background()
	if user == nil {
		if err := s.persistence.Delete(ctx, s.storageKey); err != nil {
			s.logger.Warn("session store delete persisted user: %s", err)
		}
		return
	}

	raw, err := encodeUser(user)
	if err != nil {
		s.logger.Warn("session store encode user: %s", err)
		return
	}
	if err := s.persistence.Set(ctx, s.storageKey, raw); err != nil {
		s.logger.Warn("session store write persisted user: %s", err)
	}
}

// SetLoading flags an identity-affecting operation in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	s.mu.Unlock()
	s.notify()
}

// SetError records the last operation failure.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	s.state.Err = err
	s.mu.Unlock()
	s.notify()
}

// ClearError resets the last failure. Errors are cleared explicitly, never
// implicitly.
func (s *Store) ClearError() {
	s.SetError(nil)
}

// SetFirstLogin flags the forced password-change state.
func (s *Store) SetFirstLogin(firstLogin bool) {
	s.mu.Lock()
	s.state.FirstLogin = firstLogin
	s.mu.Unlock()
	s.notify()
}

// ClearAuth atomically resets user, authenticated, error, and first-login.
// Loading is untouched. The persisted projection is deleted.
func (s *Store) ClearAuth() {
	s.mu.Lock()
	s.state.User = nil
	s.state.Authenticated = false
	s.state.Err = nil
	s.state.FirstLogin = false
	s.mu.Unlock()

	s.syncPersistence(nil)
	s.notify()
}

// ShowToast displays a toast. Zero values fall back to a success toast with
// the default duration. The auto-hide timer re-arms on every show.
func (s *Store) ShowToast(message string, kind ToastKind, duration time.Duration) {
	if kind == "" {
		kind = ToastSuccess
	}
	if duration <= 0 {
		duration = DefaultToastDuration
	}

	s.mu.Lock()
	if s.toastTimer != nil {
		s.toastTimer.Stop()
	}
	s.toastGen++
	gen := s.toastGen
	s.state.Toast = Toast{
		Visible:  true,
		Message:  message,
		Kind:     kind,
		Duration: duration,
	}
	s.toastTimer = time.AfterFunc(duration, func() {
		s.hideToastGen(gen)
	})
	s.mu.Unlock()

	s.notify()
}

// HideToast dismisses the toast. Calling it repeatedly is idempotent.
func (s *Store) HideToast() {
	s.mu.Lock()
	if s.toastTimer != nil {
		s.toastTimer.Stop()
		s.toastTimer = nil
	}
	s.toastGen++
	changed := s.state.Toast.Visible
	s.state.Toast = Toast{}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// hideToastGen only dismisses if no newer show re-armed the timer.
func (s *Store) hideToastGen(gen uint64) {
	s.mu.Lock()
	if s.toastGen != gen {
		s.mu.Unlock()
		return
	}
	s.toastTimer = nil
	s.state.Toast = Toast{}
	s.mu.Unlock()

	s.notify()
}

// ShowLoader raises the shared blocking loader.
func (s *Store) ShowLoader() {
	s.mu.Lock()
	s.state.Loader = true
	s.mu.Unlock()
	s.notify()
}

// HideLoader lowers the shared blocking loader.
func (s *Store) HideLoader() {
	s.mu.Lock()
	s.state.Loader = false
	s.mu.Unlock()
	s.notify()
}

// Toast returns the store's current toast. Part of the notification merger
// contract.
func (s *Store) Toast() Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Toast
}

// Busy reports the store's loader flag for the notification merger.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loader
}

func (s *Store) notify() {
	s.mu.Lock()
	state := s.state
	fns := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
