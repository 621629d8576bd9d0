package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/session"
)

// Manager is the single source of truth for one session. UI collaborators read
// it through [Manager.Session] or [Manager.Watch] and change it only through
// its operations.
//
// Every awaited operation flips IsLoading to true on entry and back to false on
// exit. The flag is shared, so overlapping calls race on it and the last one to
// finish wins; the mutex below only keeps the record itself consistent and is
// never held across a backend call.
type Manager struct {
	config   Config
	store    *session.Store
	backend  AuthBackend
	account  AccountBackend
	notifier *notificationDispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time

	startOnce sync.Once
	startErr  error

	// storeMu orders durable record access with the in-memory commit that
	// follows it. Taken before mu, never held across a backend call.
	storeMu sync.Mutex

	mu               sync.RWMutex
	user             *User
	token            string
	loading          bool
	started          bool
	emailVerified    bool
	twoFactorEnabled bool

	watchMu     sync.Mutex
	watchers    map[uint64]chan Snapshot
	nextWatchID uint64
	closed      bool
}

// Close stops notification delivery, draining buffered notifications, and
// closes every watcher channel. The session record is left untouched.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.notifier.Close()
	m.closeWatchers()
}

// Config returns a copy of the active configuration.
func (m *Manager) Config() Config {
	if m == nil {
		return Config{}
	}
	return cloneConfig(m.config)
}

// NotificationsDropped returns how many async notifications were dropped.
func (m *Manager) NotificationsDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.notifier.Dropped()
}

// MetricsSnapshot returns the current counters and histograms.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// Session returns a read-only snapshot of the current session.
func (m *Manager) Session() Snapshot {
	if m == nil {
		return Snapshot{State: StateUnauthenticated}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Token:            m.token,
		IsAuthenticated:  m.user != nil,
		IsLoading:        m.loading,
		EmailVerified:    m.emailVerified,
		TwoFactorEnabled: m.twoFactorEnabled,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	switch {
	case !m.started:
		s.State = StateLoading
	case m.user != nil:
		s.State = StateAuthenticated
	default:
		s.State = StateUnauthenticated
	}
	return s
}

// Start rehydrates the session from the durable record. Only the first call
// does any work; later calls return its result.
//
// A corrupt or partial record is cleared, logged and counted, and the session
// starts unauthenticated with a nil error. A storage read failure also leaves
// the session unauthenticated but is returned.
func (m *Manager) Start(ctx context.Context) error {
	if m == nil || m.store == nil {
		return ErrManagerNotReady
	}
	m.startOnce.Do(func() {
		m.startErr = m.rehydrate(orBackground(ctx))
	})
	return m.startErr
}

func (m *Manager) rehydrate(ctx context.Context) error {
	m.storeMu.Lock()
	defer m.publish()
	defer m.storeMu.Unlock()

	rec, err := m.store.Load(ctx)

	var (
		restored *User
		retErr   error
	)
	switch {
	case err == nil:
		u := rec.User
		restored = &u
		m.metrics.Inc(MetricRehydrateRestored)
		m.logger.DebugContext(ctx, "session restored", slog.String("user_id", u.ID))
	case errors.Is(err, session.ErrRecordNotFound):
		m.metrics.Inc(MetricRehydrateEmpty)
	case errors.Is(err, session.ErrRecordCorrupt), errors.Is(err, session.ErrRecordOrphaned):
		m.metrics.Inc(MetricRehydrateCorrupt)
		logging.LogError(ctx, m.logger, slog.LevelWarn, "discarded persisted session", err)
	default:
		logging.LogError(ctx, m.logger, slog.LevelError, "session rehydration failed", err)
		retErr = err
	}

	m.mu.Lock()
	if m.user == nil && restored != nil {
		m.user = restored
		m.token = rec.Token
	}
	m.started = true
	m.loading = false
	m.mu.Unlock()

	return retErr
}

// Login describes the login operation and its observable behavior.
//
// Login fails with [ErrCredentialsRequired] when email or password is empty and
// leaves the session unchanged on every failure. On success the issued user and
// token are persisted, then committed.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if m == nil || m.backend == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	creds, err := m.authenticate(ctx, email, password, func(ctx context.Context) (Credentials, error) {
		return m.backend.Login(ctx, email, password)
	})
	if err != nil {
		m.metrics.Inc(MetricLoginFailure)
		m.fail(ctx, OpLogin, "Login failed", err)
		return err
	}

	m.metrics.Inc(MetricLoginSuccess)
	m.succeed(ctx, OpLogin, "Login successful",
		fmt.Sprintf("Welcome back, %s!", creds.User.DisplayName()))
	return nil
}

// Register describes the register operation and its observable behavior.
//
// Register validates like Login. An empty name is replaced by the local part of
// the email by the backend.
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	if m == nil || m.backend == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	_, err := m.authenticate(ctx, email, password, func(ctx context.Context) (Credentials, error) {
		return m.backend.Register(ctx, email, password, name)
	})
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		m.fail(ctx, OpRegister, "Registration failed", err)
		return err
	}

	m.metrics.Inc(MetricRegisterSuccess)
	m.succeed(ctx, OpRegister, "Registration successful",
		"Your account has been created and you're now logged in.")
	return nil
}

func (m *Manager) authenticate(
	ctx context.Context,
	email, password string,
	call func(context.Context) (Credentials, error),
) (Credentials, error) {
	if email == "" || password == "" {
		return Credentials{}, m.rejectAfterDelay(ctx, ErrCredentialsRequired)
	}

	creds, err := call(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if creds.Token == "" || !creds.User.Valid() {
		return Credentials{}, fmt.Errorf("%w: incomplete credentials issued", ErrBackendUnavailable)
	}

	m.storeMu.Lock()
	if err := m.store.Save(ctx, session.Record{User: creds.User, Token: creds.Token}); err != nil {
		m.storeMu.Unlock()
		m.metrics.Inc(MetricPersistFailure)
		logging.LogError(ctx, m.logger, slog.LevelError, "persist session failed", err)
		return Credentials{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	u := creds.User
	m.mu.Lock()
	m.user = &u
	m.token = creds.Token
	m.emailVerified = false
	m.twoFactorEnabled = false
	m.mu.Unlock()
	m.storeMu.Unlock()
	m.publish()

	return creds, nil
}

// Logout clears the durable record and the in-memory session. It is synchronous
// and always succeeds; a storage failure is logged and counted only.
func (m *Manager) Logout(ctx context.Context) {
	if m == nil {
		return
	}
	ctx = orBackground(ctx)

	m.storeMu.Lock()
	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.metrics.Inc(MetricPersistFailure)
			logging.LogError(ctx, m.logger, slog.LevelWarn, "clear persisted session failed", err)
		}
	}

	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.emailVerified = false
	m.twoFactorEnabled = false
	m.mu.Unlock()
	m.storeMu.Unlock()
	m.publish()

	m.metrics.Inc(MetricLogout)
	m.succeed(ctx, OpLogout, "Logged out", "You have been successfully logged out.")
}

// RequestPasswordReset asks the backend to email a reset link. It never
// changes the session.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if m == nil || m.backend == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	var err error
	if email == "" {
		err = m.rejectAfterDelay(ctx, ErrEmailRequired)
	} else {
		err = m.backend.RequestPasswordReset(ctx, email)
	}
	if err != nil {
		m.metrics.Inc(MetricPasswordResetRequestFailure)
		m.fail(ctx, OpRequestPasswordReset, "Password reset request failed", err)
		return err
	}

	m.metrics.Inc(MetricPasswordResetRequest)
	m.succeed(ctx, OpRequestPasswordReset, "Password reset email sent",
		fmt.Sprintf("If an account exists for %s, you'll receive a password reset link.", email))
	return nil
}

// ResetPassword completes a reset with the emailed token. It never changes the
// session, signed in or not.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m == nil || m.backend == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	var err error
	if token == "" || newPassword == "" {
		err = m.rejectAfterDelay(ctx, ErrResetInvalid)
	} else {
		err = m.backend.ResetPassword(ctx, token, newPassword)
	}
	if err != nil {
		m.metrics.Inc(MetricPasswordResetFailure)
		m.fail(ctx, OpResetPassword, "Password reset failed", err)
		return err
	}

	m.metrics.Inc(MetricPasswordResetSuccess)
	m.succeed(ctx, OpResetPassword, "Password reset successful",
		"Your password has been updated. Please log in with your new password.")
	return nil
}

// begin marks the session loading and returns the func that clears the flag
// and records the operation latency.
func (m *Manager) begin() func() {
	start := m.now()
	m.setLoading(true)
	return func() {
		m.setLoading(false)
		m.metrics.Observe(MetricOperationLatency, m.now().Sub(start))
	}
}

// rejectAfterDelay returns err once the simulated round trip has elapsed, so
// missing fields are reported like any other server-side rejection.
func (m *Manager) rejectAfterDelay(ctx context.Context, err error) error {
	d := m.config.Mock.Latency
	if d <= 0 {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) currentUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *Manager) succeed(ctx context.Context, op Operation, title, description string) {
	m.notify(ctx, Notification{
		Kind:        NotifySuccess,
		Title:       title,
		Description: description,
		Operation:   op,
	})
}

func (m *Manager) fail(ctx context.Context, op Operation, title string, err error) {
	if !IsValidation(err) {
		logging.LogError(ctx, m.logger, slog.LevelWarn, "session operation failed", err)
	}
	m.notify(ctx, Notification{
		Kind:        NotifyError,
		Title:       title,
		Description: describe(err),
		Operation:   op,
	})
}

func (m *Manager) notify(ctx context.Context, n Notification) {
	n.Timestamp = m.now()
	m.logger.DebugContext(ctx, "session notification",
		slog.String("operation", string(n.Operation)),
		slog.String("kind", string(n.Kind)),
		slog.String("title", n.Title),
	)
	// Notifications outlive a cancelled operation context.
	m.notifier.Notify(context.WithoutCancel(ctx), n)
}

func describe(err error) string {
	var v *ValidationError
	switch {
	case errors.As(err, &v):
		return v.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	case errors.Is(err, ErrPersistFailed):
		return "Your session could not be saved. Please try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in first."
	case err != nil:
		return err.Error()
	default:
		return "Unknown error occurred"
	}
}
