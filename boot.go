package session

import "context"

// Shell wires the session core in its required order: persistence is read
// while the store is constructed, so every guard evaluation happens against
// a seeded session; the background identity refresh and expiry handling
// start in Boot.
type Shell struct {
	Store    *Store
	Manager  *Manager
	Notifier *Notifier
	Hub      *ExpiryHub
	Tokens   *TokenHolder

	signInRoute string
	logger      Logger
	service     AuthService
	timer       *ExpiryTimer
	persistence Persistence
	storageKey  string
}

// ShellOption customizes shell construction.
type ShellOption func(*Shell)

// WithShellPersistence sets the durable user cache seeded into the store.
func WithShellPersistence(p Persistence, key string) ShellOption {
	return func(sh *Shell) {
		sh.persistence = p
		sh.storageKey = key
	}
}

// WithShellLogger overrides the logger for every wired component.
func WithShellLogger(logger Logger) ShellOption {
	return func(sh *Shell) {
		if logger != nil {
			sh.logger = logger
		}
	}
}

// WithShellSignInRoute overrides where forced expiry navigates.
func WithShellSignInRoute(route string) ShellOption {
	return func(sh *Shell) {
		if route != "" {
			sh.signInRoute = route
		}
	}
}

// NewShell builds the dependency-injected session core around an auth
// service.
func NewShell(service AuthService, opts ...ShellOption) *Shell {
	if service == nil {
		panic("session: Shell requires an AuthService")
	}

	sh := &Shell{
		service:     service,
		signInRoute: DefaultSignInRoute,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		opt(sh)
	}

	storeOpts := []StoreOption{WithStoreLogger(sh.logger)}
	if sh.persistence != nil {
		storeOpts = append(storeOpts, WithPersistence(sh.persistence, sh.storageKey))
	}
	sh.Store = NewStore(storeOpts...)

	sh.Hub = NewExpiryHub()
	sh.Tokens = NewTokenHolder()
	sh.timer = NewExpiryTimer(sh.Hub, sh.logger)

	if httpService, ok := service.(*HTTPAuthService); ok {
		WithClientTokens(sh.Tokens)(httpService)
		WithClientExpiryHub(sh.Hub)(httpService)
	}

	sh.Manager = NewManager(sh.Store, service,
		WithManagerLogger(sh.logger),
		WithTokenHolder(sh.Tokens),
		WithExpiryTimer(sh.timer),
	)

	sh.Notifier = NewNotifier()
	sh.Notifier.RegisterStore(sh.Store)

	return sh
}

// Boot binds the expiry handler and refreshes the identity in the
// background. The read-through failure is logged, never toasted. No
// session on a first visit is normal. The returned teardown unsubscribes
// the expiry handler and stops timers; call it when the routed shell goes
// away.
func (sh *Shell) Boot(ctx context.Context, navigate NavigateFunc) func() {
	unsubscribe := BindExpiryHandler(sh.Hub, sh.Store, sh.signInRoute, navigate, sh.logger)

	// the bearer token must not outlive the session it belonged to; a
	// stale token riding on the next request would turn an ordinary 401
	// into another expiry signal
	dropTokens := sh.Hub.Subscribe(func(ExpirySignal) {
		sh.Tokens.Clear()
		sh.timer.Stop()
	})

	go func() {
		if _, err := sh.Manager.CurrentUser(ctx); err != nil {
			sh.logger.Info("no active session at boot: %s", err)
		}
	}()

	return func() {
		unsubscribe()
		dropTokens()
		sh.timer.Stop()
	}
}
