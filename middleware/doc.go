// Package middleware exposes HTTP guards backed by a goSession.Manager.
//
// # Guards
//
//   - [Guard] admits requests while the session is authenticated.
//   - [RequireToken] also requires an Authorization bearer token equal to the
//     session token.
//
// Each guard injects the admitted [goSession.Snapshot] into the request
// context; handlers read it back with [SnapshotFromContext].
//
// This package translates HTTP semantics into Manager reads. It never changes
// session state.
package middleware
