// Package authstate manages the client side of an authentication session
// against a managed backend: session validity windows, refresh decisions,
// profile enrichment with a short-TTL cache, and event-driven state
// transitions.
//
// Session lifecycle:
//   - SessionManager owns the current Session. Initialize bootstraps state
//     once at startup; Validate checks expiry before sensitive operations
//     and refreshes when the session is inside the configured threshold
//     window. Transient backend failures never force a logout.
//   - AuthEventListener subscribes to backend-emitted auth events. Sign-in
//     is processed synchronously so dependent callers observe the new state
//     immediately; every other session-bearing event flows through a
//     single-worker queue, the priority being an explicit field on the
//     event rather than a scheduling side effect.
//
// Profile enrichment:
//   - ProfileEnricher turns a raw Identity into an EnrichedUser by merging
//     a Profile row fetched through the Profiles store. Results are cached
//     with a fixed TTL; a missing or unreadable profile degrades to a
//     minimal user with the student role instead of failing the caller.
//     Errors classified as auth errors are the one exception: they signal
//     an invalid session and trigger a forced sign-out.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the manager and
//     listener to describe session lifecycle events. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package authstate
