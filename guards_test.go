package session_test

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	session "github.com/unidel-cbt/go-session"
)

func passThrough() (router.HandlerFunc, *bool) {
	called := false
	return func(c router.Context) error {
		called = true
		return nil
	}, &called
}

func TestGuestOnlyAllowsAnonymousVisitor(t *testing.T) {
	store := session.NewStore()
	next, called := passThrough()

	ctx := &MockContext{}
	err := session.GuestOnly(store)(next)(ctx)

	require.NoError(t, err)
	assert.True(t, *called)
}

func TestGuestOnlyRedirectsAuthenticatedToRoleHome(t *testing.T) {
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: session.RoleLecturer})
	next, called := passThrough()

	ctx := &MockContext{}
	ctx.On("Redirect", "/lecturer", []int{router.StatusSeeOther}).Return(nil)

	err := session.GuestOnly(store)(next)(ctx)

	require.NoError(t, err)
	assert.False(t, *called)
	ctx.AssertExpectations(t)
}

func TestGuestOnlySuperAdminSharesAdminHome(t *testing.T) {
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: "SuperAdmin"})
	next, _ := passThrough()

	ctx := &MockContext{}
	ctx.On("Redirect", "/admin", []int{router.StatusSeeOther}).Return(nil)

	require.NoError(t, session.GuestOnly(store)(next)(ctx))
	ctx.AssertExpectations(t)
}

func TestProtectedRedirectsAnonymousToSignIn(t *testing.T) {
	store := session.NewStore()
	next, called := passThrough()

	ctx := &MockContext{}
	ctx.On("Path").Return("/student/exams")
	ctx.On("Redirect", session.DefaultSignInRoute, []int{router.StatusSeeOther}).Return(nil)

	err := session.Protected(store)(next)(ctx)

	require.NoError(t, err)
	assert.False(t, *called)
	ctx.AssertExpectations(t)
}

func TestProtectedAllowsAuthenticatedWithEmptyAllowList(t *testing.T) {
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: session.RoleStudent})
	next, called := passThrough()

	ctx := &MockContext{}
	require.NoError(t, session.Protected(store)(next)(ctx))
	assert.True(t, *called)
}

func TestProtectedAllowListIsCaseInsensitive(t *testing.T) {
	store := session.NewStore()
	// the backend sent a mixed-case role; the guard still matches
	store.SetUser(&session.User{ID: "u-1", Role: "Admin"})
	next, called := passThrough()

	ctx := &MockContext{}
	require.NoError(t, session.Protected(store, session.RoleAdmin)(next)(ctx))
	assert.True(t, *called)
}

func TestProtectedRejectsRoleOutsideAllowList(t *testing.T) {
	store := session.NewStore()
	store.SetUser(&session.User{ID: "u-1", Role: session.RoleStudent})
	next, called := passThrough()

	ctx := &MockContext{}
	ctx.On("Path").Return("/admin/settings")
	ctx.On("Redirect", "/", []int{router.StatusSeeOther}).Return(nil)

	err := session.Protected(store, session.RoleAdmin, session.RoleSuperAdmin)(next)(ctx)

	require.NoError(t, err)
	assert.False(t, *called)
	ctx.AssertExpectations(t)
}

func TestProtectedAuthCheckPrecedesRoleCheck(t *testing.T) {
	store := session.NewStore()
	next, called := passThrough()

	// anonymous visitor on a role-restricted route goes to sign-in, not
	// the site root
	ctx := &MockContext{}
	ctx.On("Path").Return("/admin")
	ctx.On("Redirect", session.DefaultSignInRoute, []int{router.StatusSeeOther}).Return(nil)

	err := session.Protected(store, session.RoleAdmin)(next)(ctx)

	require.NoError(t, err)
	assert.False(t, *called)
	ctx.AssertExpectations(t)
}

func TestProtectedBlocksWhileLoading(t *testing.T) {
	store := session.NewStore()
	store.SetLoading(true)
	next, called := passThrough()

	ctx := &MockContext{}
	ctx.On("SendString", "Loading…").Return(nil)

	err := session.Protected(store)(next)(ctx)

	require.NoError(t, err)
	assert.False(t, *called, "no redirect decision while identity is unresolved")
	ctx.AssertExpectations(t)
}

func TestProtectedCustomLoadingHandler(t *testing.T) {
	store := session.NewStore()
	store.SetLoading(true)

	rendered := false
	cfg := session.GuardConfig{
		LoadingHandler: func(c router.Context) error {
			rendered = true
			return nil
		},
	}

	next, called := passThrough()
	ctx := &MockContext{}

	require.NoError(t, session.ProtectedWithConfig(store, cfg)(next)(ctx))
	assert.True(t, rendered)
	assert.False(t, *called)
}

func TestProtectedCustomRoutes(t *testing.T) {
	store := session.NewStore()
	next, _ := passThrough()

	cfg := session.GuardConfig{SignInRoute: "/portal/login"}

	ctx := &MockContext{}
	ctx.On("Path").Return("/portal/dashboard")
	ctx.On("Redirect", "/portal/login", []int{router.StatusSeeOther}).Return(nil)

	require.NoError(t, session.ProtectedWithConfig(store, cfg)(next)(ctx))
	ctx.AssertExpectations(t)
}
