// Package session provides the durable two-slot session record and the key-value
// backends it is persisted to.
//
// # Record layout
//
// A [Record] is stored under two named slots: an opaque token slot and a user slot
// holding the JSON encoding of [User]. Both slots are written on every successful
// login or registration and removed together on logout. [Store.Load] reports a
// half-written or unparsable record as [ErrRecordCorrupt] after clearing it, so a
// caller never rehydrates a user without a token or a token without a user.
//
// # Backends
//
//   - [MemoryKV]: process-local map, used by tests and the default CLI store.
//   - [RedisKV]: go-redis backed slots with optional TTL jitter.
//   - [SQLKV]: uptrace/bun table, sqlite via [OpenSQLite].
//
// # What this package must NOT do
//
//   - Import goSession (no upward imports).
//   - Decide authentication outcomes or emit notifications.
//   - Interpret the token slot beyond presence.
package session
