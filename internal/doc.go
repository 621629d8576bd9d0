// Package internal contains helper utilities that are intentionally private to goSession:
// placeholder code generation and code shape checks used by the mock backend.
//
// # Sub-packages
//
//   - logging: slog handler carrying service, version and trace context
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Claim cryptographic guarantees for the placeholders it generates.
package internal
