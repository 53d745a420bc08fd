package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	session "github.com/unidel-cbt/go-session"
)

func TestExpiryHubDispatchReachesSubscribers(t *testing.T) {
	hub := session.NewExpiryHub()

	var got []session.ExpirySignal
	hub.Subscribe(func(signal session.ExpirySignal) {
		got = append(got, signal)
	})

	hub.Dispatch("token invalid")

	require.Len(t, got, 1)
	assert.Equal(t, "token invalid", got[0].Reason)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestExpiryHubEmptyReasonFallsBack(t *testing.T) {
	hub := session.NewExpiryHub()

	var reason string
	hub.Subscribe(func(signal session.ExpirySignal) {
		reason = signal.Reason
	})

	hub.Dispatch("")
	assert.Equal(t, session.SessionExpiredMessage, reason)
}

func TestExpiryHubUnsubscribe(t *testing.T) {
	hub := session.NewExpiryHub()

	count := 0
	unsubscribe := hub.Subscribe(func(session.ExpirySignal) {
		count++
	})

	hub.Dispatch("first")
	unsubscribe()
	unsubscribe() // repeat is a no-op
	hub.Dispatch("second")

	assert.Equal(t, 1, count)
}

func TestExpiryHandlerForcesLoggedOutTransition(t *testing.T) {
	hub := session.NewExpiryHub()
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: session.RoleStudent})
	store.SetFirstLogin(true)

	var navigated []string
	session.BindExpiryHandler(hub, store, "", func(path string) {
		navigated = append(navigated, path)
	}, nil)

	hub.Dispatch(session.SessionExpiredMessage)

	state := store.Snapshot()
	assert.Nil(t, state.User)
	assert.False(t, state.Authenticated)
	assert.False(t, state.FirstLogin)

	toast := store.Toast()
	assert.True(t, toast.Visible)
	assert.Equal(t, session.ToastWarning, toast.Kind)
	assert.Equal(t, session.SessionExpiredMessage, toast.Message)

	require.Len(t, navigated, 1)
	assert.Equal(t, session.DefaultSignInRoute, navigated[0])
}

func TestExpiryHandlerAfterManualLogoutOnlyRedirects(t *testing.T) {
	hub := session.NewExpiryHub()
	store := session.NewStore()

	var navigated []string
	session.BindExpiryHandler(hub, store, "/portal/login", func(path string) {
		navigated = append(navigated, path)
	}, nil)

	// nobody is signed in; a late 401 still lands the visitor on sign-in
	// but must not flash an expiry warning at them
	hub.Dispatch(session.SessionExpiredMessage)

	assert.False(t, store.Toast().Visible)
	require.Len(t, navigated, 1)
	assert.Equal(t, "/portal/login", navigated[0])
}

func TestExpiryHandlerIsIdempotent(t *testing.T) {
	hub := session.NewExpiryHub()
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: session.RoleStudent})

	var navigated int
	session.BindExpiryHandler(hub, store, "", func(string) {
		navigated++
	}, nil)

	hub.Dispatch("expired")
	store.HideToast()
	hub.Dispatch("expired")

	// the second signal finds a logged-out session: redirect only
	assert.False(t, store.Toast().Visible)
	assert.Equal(t, 2, navigated)
	assert.False(t, store.Snapshot().Authenticated)
}

func TestExpiryHandlerUnsubscribeStopsHandling(t *testing.T) {
	hub := session.NewExpiryHub()
	store := session.NewStore()

	var navigated int
	teardown := session.BindExpiryHandler(hub, store, "", func(string) {
		navigated++
	}, nil)

	teardown()
	hub.Dispatch("expired")

	assert.Zero(t, navigated)
}
