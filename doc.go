// Package session implements the client-side session core for the UNIDEL
// computer-based-testing front end: who is signed in, how that identity
// survives reloads, and how routed surfaces react to it.
//
// Session store:
//   - Store is the single owner of the current User, the loading/error flags,
//     the first-login marker, and the shared toast/loader UI state. Mutation
//     is whole-value replacement guarded by a mutex; Snapshot returns an
//     immutable copy and Subscribe lets guards, views, and tests observe
//     every transition in order.
//
// Auth operations:
//   - Manager drives the asynchronous operations (sign in, admin sign up,
//     sign out, forgot/reset password, first-login password change, current
//     user refresh) against an AuthService and applies their results to the
//     Store with a stale-completion guard. Failures are recorded, toasted,
//     and re-raised so call sites can branch.
//
// Persistence:
//   - Persistence is a get/set/delete capability over one durable key that
//     caches the user projection as JSON. Corrupt payloads fail open to
//     logged-out. MemoryPersistence ships in-package; bunstore and
//     redisstore provide SQLite- and redis-backed implementations.
//
// Guards and expiry:
//   - GuestOnly and Protected are go-router middleware deciding between
//     render, sign-in, role home, and site root. ExpiryHub broadcasts the
//     out-of-band session-expired signal; BindExpiryHandler turns it into an
//     idempotent forced logout plus redirect.
package session
