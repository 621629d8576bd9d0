// Package goSession provides a mock client-side session manager: login, registration,
// logout and password reset over one process-wide session that is persisted to a
// durable key-value store and rehydrated at startup.
//
// Nothing here verifies credentials, hashes passwords or signs tokens. User ids and
// tokens are random placeholders issued by [MockBackend]; swap in a real
// [AuthBackend] to talk to an identity provider without touching call sites.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config], the
// backend capabilities and the notification sinks. Slot persistence and the KV
// backends live in the session package; logging helpers live under internal/.
//
// # Session contract
//
//   - User and token are both present or both absent.
//   - IsLoading is true while an operation runs and false after it returns, on
//     every path.
//   - Every operation commits at most once, only on success, and emits exactly one
//     [Notification].
//   - Logout is synchronous and never fails; storage errors are logged.
//
// # What this package must NOT do
//
//   - Reach a Manager through package globals; pass it explicitly or via
//     [NewContext].
//   - Let UI collaborators mutate session state other than through operations.
package goSession
