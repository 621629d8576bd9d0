package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireToken is [Guard] plus a bearer token check against the session token.
func RequireToken(m *goSession.Manager) func(http.Handler) http.Handler {
	return guard(m, true)
}
