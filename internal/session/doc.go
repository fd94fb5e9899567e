// Package session holds the backend's one live OAuth credential set behind a [Broker].
//
// # State Machine
//
//	Unauthenticated ──StartLogin──▶ Authorizing ──Exchange──▶ Authenticated
//	Authenticated ──EnsureValidToken (near expiry)──▶ Refreshing ──▶ Authenticated
//	Refreshing ──refresh failure──▶ Unauthenticated
//
// A failed refresh drops the session. Nothing logs the user back in; callers surface
// [shared.ErrNotAuthenticated] and offer the login flow again.
//
// # Refresh
//
// [Broker.EnsureValidToken] is the only gate: a token that expires within [RefreshLeeway]
// is exchanged before it is handed out. Concurrent callers that all observe an expiring
// token share one exchange through a [singleflight.Group].
package session
