package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionExpiredMessage is the toast shown on a forced expiry.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// DefaultSignInRoute is where forced expiry and guards send visitors.
const DefaultSignInRoute = "/auth/sign-in"

// ExpirySignal is the out-of-band session-expired event the network layer
// raises when a request fails authorization after the session believed it
// was authenticated.
type ExpirySignal struct {
	Reason     string
	OccurredAt time.Time
}

// ExpiryListener consumes expiry signals.
type ExpiryListener func(ExpirySignal)

// ExpiryHub is the process-wide dispatcher for expiry signals. Listeners
// run on the dispatching goroutine, in no particular order.
type ExpiryHub struct {
	mu        sync.RWMutex
	listeners map[uuid.UUID]ExpiryListener
}

func NewExpiryHub() *ExpiryHub {
	return &ExpiryHub{listeners: map[uuid.UUID]ExpiryListener{}}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (h *ExpiryHub) Subscribe(fn ExpiryListener) func() {
	if fn == nil {
		return func() {}
	}

	id := uuid.New()

	h.mu.Lock()
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Dispatch broadcasts the signal to every subscriber.
func (h *ExpiryHub) Dispatch(reason string) {
	if reason == "" {
		reason = SessionExpiredMessage
	}

	signal := ExpirySignal{
		Reason:     reason,
		OccurredAt: time.Now(),
	}

	h.mu.RLock()
	fns := make([]ExpiryListener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(signal)
	}
}

// BindExpiryHandler subscribes the forced-expiry transition for the
// lifetime of the routed shell: clear the session, surface an explanatory
// toast, navigate to sign-in. The transition is idempotent: a second
// signal, or one arriving after a manual logout, only repeats the redirect.
// The returned function unsubscribes on shell teardown.
func BindExpiryHandler(hub *ExpiryHub, store *Store, signInRoute string, navigate NavigateFunc, logger Logger) func() {
	if signInRoute == "" {
		signInRoute = DefaultSignInRoute
	}
	if logger == nil {
		logger = defLogger{}
	}

	return hub.Subscribe(func(signal ExpirySignal) {
		wasAuthenticated := store.Snapshot().Authenticated

		store.ClearAuth()

		if wasAuthenticated {
			logger.Info("session expired: %s", signal.Reason)
			store.ShowToast(signal.Reason, ToastWarning, 0)
		}

		if navigate != nil {
			navigate(signInRoute)
		}
	})
}
