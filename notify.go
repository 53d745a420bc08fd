package session

import (
	"sync"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// ToastSource is any store contributing toast state to the merger.
type ToastSource interface {
	Toast() Toast
	HideToast()
}

// LoaderSource is any store contributing a loader flag to the merger.
type LoaderSource interface {
	Busy() bool
}

// Notifier arbitrates notifications contributed by independent stores. The
// precedence rule: the first registered source with a visible toast wins:
// the session store registers first, so its toast always shadows feature
// toasts. Hiding routes back to the owning source only; a shadowed toast is
// never cleared by someone else's hide. The merged loader is the OR of
// every registered loader flag.
type Notifier struct {
	mu      sync.RWMutex
	toasts  []ToastSource
	loaders []LoaderSource
}

func NewNotifier(sources ...ToastSource) *Notifier {
	n := &Notifier{}
	for _, src := range sources {
		n.RegisterToasts(src)
	}
	return n
}

// RegisterToasts appends a toast source; registration order is precedence
// order.
func (n *Notifier) RegisterToasts(src ToastSource) {
	if src == nil {
		return
	}
	n.mu.Lock()
	n.toasts = append(n.toasts, src)
	n.mu.Unlock()
}

// RegisterLoader appends a loader source.
func (n *Notifier) RegisterLoader(src LoaderSource) {
	if src == nil {
		return
	}
	n.mu.Lock()
	n.loaders = append(n.loaders, src)
	n.mu.Unlock()
}

// RegisterStore wires a session store as both toast and loader source.
func (n *Notifier) RegisterStore(store *Store) {
	n.RegisterToasts(store)
	n.RegisterLoader(store)
}

// Active returns the toast to render, if any.
func (n *Notifier) Active() (Toast, bool) {
	src, toast := n.active()
	if src == nil {
		return Toast{}, false
	}
	return toast, true
}

// Hide dismisses the currently displayed toast on its owning source.
// Shadowed toasts on other sources stay pending.
func (n *Notifier) Hide() {
	src, _ := n.active()
	if src != nil {
		src.HideToast()
	}
}

// Busy reports whether any registered store is loading.
func (n *Notifier) Busy() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, src := range n.loaders {
		if src.Busy() {
			return true
		}
	}
	return false
}

func (n *Notifier) active() (ToastSource, Toast) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, src := range n.toasts {
		if toast := src.Toast(); toast.Visible {
			return src, toast
		}
	}
	return nil, Toast{}
}

// FlashToast carries a toast across a redirect through go-router's flash
// scope so server-rendered views can display it.
func FlashToast(c router.Context, toast Toast) router.Context {
	data := router.ViewContext{
		"system_message": toast.Message,
		"toast_kind":     string(toast.Kind),
	}

	switch toast.Kind {
	case ToastError, ToastWarning:
		return flash.WithError(c, data)
	default:
		return flash.WithSuccess(c, data)
	}
}

// FlashActive moves the merger's current toast into the flash scope and
// hides it on the owning store. Without an active toast the context passes
// through untouched.
func FlashActive(c router.Context, n *Notifier) router.Context {
	toast, ok := n.Active()
	if !ok {
		return c
	}
	n.Hide()
	return FlashToast(c, toast)
}
