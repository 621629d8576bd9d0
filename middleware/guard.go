package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the session snapshot admitted by a guard.
func SnapshotFromContext(ctx context.Context) (goSession.Snapshot, bool) {
	s, ok := ctx.Value(snapshotContextKey{}).(goSession.Snapshot)
	return s, ok
}

// Guard rejects requests with 401 unless m holds an authenticated session.
func Guard(m *goSession.Manager) func(http.Handler) http.Handler {
	return guard(m, false)
}

func guard(m *goSession.Manager, requireToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			s := m.Session()
			if !s.IsAuthenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if requireToken {
				token, ok := bearerToken(r.Header.Get("Authorization"))
				if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
