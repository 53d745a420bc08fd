package session

import (
	"github.com/goliatone/go-router"
)

// GuardConfig carries the routes guards redirect to and the blocking
// placeholder rendered while an identity-affecting operation is in flight.
type GuardConfig struct {
	SignInRoute    string
	SiteRoot       string
	Homes          RoleHomes
	LoadingHandler router.HandlerFunc
	Logger         Logger
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.SignInRoute == "" {
		c.SignInRoute = DefaultSignInRoute
	}
	if c.SiteRoot == "" {
		c.SiteRoot = "/"
	}
	if c.Homes == (RoleHomes{}) {
		c.Homes = DefaultRoleHomes()
	}
	if c.LoadingHandler == nil {
		c.LoadingHandler = defaultLoadingHandler
	}
	if c.Logger == nil {
		c.Logger = defLogger{}
	}
	return c
}

// defaultLoadingHandler blocks the navigation without deciding a redirect.
func defaultLoadingHandler(c router.Context) error {
	return c.SendString("Loading…")
}

// GuestOnly blocks authenticated users from auth pages, redirecting them to
// their role home. The 303 redirect replaces history so there is no
// back-navigation into the guest page.
func GuestOnly(store *Store, cfg ...GuardConfig) router.MiddlewareFunc {
	conf := GuardConfig{}
	if len(cfg) > 0 {
		conf = cfg[0]
	}
	conf = conf.withDefaults()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			state := store.Snapshot()

			if state.Authenticated && state.User != nil {
				home := conf.Homes.HomeFor(state.User.NormalizedRole())
				conf.Logger.Debug("guest guard redirecting authenticated user to %s", home)
				return c.Redirect(home, router.StatusSeeOther)
			}

			return next(c)
		}
	}
}

// Protected blocks unauthenticated visitors, redirecting to sign-in, and
// enforces the role allow-list. An empty allow-list admits any
// authenticated role. The authentication check strictly precedes the role
// check: an unauthenticated user is sent to sign-in, never told about
// roles.
func Protected(store *Store, allowedRoles ...UserRole) router.MiddlewareFunc {
	return ProtectedWithConfig(store, GuardConfig{}, allowedRoles...)
}

// ProtectedWithConfig is Protected with explicit guard configuration.
func ProtectedWithConfig(store *Store, cfg GuardConfig, allowedRoles ...UserRole) router.MiddlewareFunc {
	conf := cfg.withDefaults()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			state := store.Snapshot()

			if state.Loading {
				return conf.LoadingHandler(c)
			}

			if !state.Authenticated || state.User == nil {
				conf.Logger.Debug("protected guard redirecting %s to sign in", c.Path())
				return c.Redirect(conf.SignInRoute, router.StatusSeeOther)
			}

			role := state.User.NormalizedRole()
			if !roleAllowed(role, allowedRoles) {
				conf.Logger.Info("protected guard rejecting role %s for %s", role, c.Path())
				return c.Redirect(conf.SiteRoot, router.StatusSeeOther)
			}

			return next(c)
		}
	}
}
