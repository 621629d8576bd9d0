package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/middleware"
	validation "github.com/go-ozzo/ozzo-validation"
)

const maxBodyBytes = 1 << 20

// Options tunes a [Server]. Every field is optional.
type Options struct {
	Logger *slog.Logger
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// OriginPatterns are the extra origins allowed to open /session/watch.
	OriginPatterns []string
}

// Server exposes one Manager over JSON endpoints.
type Server struct {
	manager *goSession.Manager
	logger  *slog.Logger
	origins []string
	mux     *http.ServeMux
}

// NewServer wires every route onto a fresh mux.
func NewServer(m *goSession.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		manager: m,
		logger:  logger,
		origins: opts.OriginPatterns,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /session", s.handleSession)
	s.mux.HandleFunc("GET /session/watch", s.handleWatch)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("POST /password/forgot", s.handleForgotPassword)
	s.mux.HandleFunc("POST /password/reset", s.handleResetPassword)
	s.mux.HandleFunc("POST /password/change", s.handleChangePassword)
	s.mux.HandleFunc("POST /email/code", s.handleEmailCode)
	s.mux.HandleFunc("POST /email/verify", s.handleEmailVerify)
	s.mux.HandleFunc("POST /2fa/enable", s.handleTwoFactorEnable)
	s.mux.HandleFunc("POST /2fa/disable", s.handleTwoFactorDisable)
	s.mux.Handle("GET /dashboard", middleware.Guard(m)(http.HandlerFunc(s.handleDashboard)))
	if opts.Metrics != nil {
		s.mux.Handle("GET /metrics", opts.Metrics)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Session())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.Login(r.Context(), req.Email, req.Password))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.Register(r.Context(), req.Email, req.Password, req.Name))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.manager.Logout(r.Context())
	s.respond(w, r, nil)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.RequestPasswordReset(r.Context(), req.Email))
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.ResetPassword(r.Context(), req.Token, req.Password))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword))
}

func (s *Server) handleEmailCode(w http.ResponseWriter, r *http.Request) {
	var req EmailCodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.SendVerificationCode(r.Context(), req.Email))
}

func (s *Server) handleEmailVerify(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.VerifyEmail(r.Context(), req.Code))
}

func (s *Server) handleTwoFactorEnable(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, r, s.manager.EnableTwoFactor(r.Context(), req.Code))
}

func (s *Server) handleTwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.manager.DisableTwoFactor(r.Context()))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.SnapshotFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Welcome to your dashboard, " + snap.User.DisplayName(),
		"user":             snap.User,
		"emailVerified":    snap.EmailVerified,
		"twoFactorEnabled": snap.TwoFactorEnabled,
	})
}

// ---------------------------------------------------------------------------
// Request / response helpers
// ---------------------------------------------------------------------------

// decode reads a JSON body into dst and runs its Validate method. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return false
	}

	v, ok := dst.(validation.Validatable)
	if !ok {
		return true
	}
	if err := v.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeError(w, http.StatusUnprocessableEntity, "validation failed", fields)
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, s.manager.Session())
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.LogError(r.Context(), s.logger, slog.LevelError, "session request failed", err,
			slog.String("path", r.URL.Path))
	}
	writeError(w, status, err.Error(), nil)
}

func statusFor(err error) int {
	switch {
	case goSession.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, goSession.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, goSession.ErrPersistFailed), errors.Is(err, goSession.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, fields validation.Errors) {
	writeJSON(w, status, errorBody{Error: msg, Fields: fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
