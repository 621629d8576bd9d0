package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

func TestManagerStartsLoading(t *testing.T) {
	tm := newTestManager(t, fastConfig())

	s := tm.Session()
	if !s.IsLoading || s.State != StateLoading {
		t.Fatalf("expected loading before Start, got %+v", s)
	}
	if s.IsAuthenticated || s.User != nil || s.Token != "" {
		t.Fatalf("expected empty session before Start, got %+v", s)
	}

	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s = tm.Session()
	if s.IsLoading || s.State != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after Start, got %+v", s)
	}
	if got := tm.MetricsSnapshot().Counters[MetricRehydrateEmpty]; got != 1 {
		t.Fatalf("expected one empty rehydration, got %d", got)
	}
}

func TestManagerStartRestoresPersistedSession(t *testing.T) {
	kv := session.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, session.DefaultTokenSlot, "tok_1")
	_ = kv.Set(ctx, session.DefaultUserSlot, `{"id":"user_1","email":"a@b.com","name":"A"}`)

	m, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	s := m.Session()
	if !s.IsAuthenticated || s.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %+v", s)
	}
	if s.Token != "tok_1" || s.User == nil || s.User.ID != "user_1" || s.User.Name != "A" {
		t.Fatalf("unexpected restored session: %+v", s)
	}
}

func TestManagerStartDiscardsCorruptRecord(t *testing.T) {
	kv := session.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, session.DefaultTokenSlot, "tok_1")
	_ = kv.Set(ctx, session.DefaultUserSlot, "{not json")

	m, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("corrupt record must not fail Start: %v", err)
	}

	s := m.Session()
	if s.IsAuthenticated || s.IsLoading || s.State != StateUnauthenticated {
		t.Fatalf("expected clean unauthenticated session, got %+v", s)
	}
	if kv.Len() != 0 {
		t.Fatalf("expected both slots cleared, %d left", kv.Len())
	}
	if got := m.MetricsSnapshot().Counters[MetricRehydrateCorrupt]; got != 1 {
		t.Fatalf("expected corrupt counter 1, got %d", got)
	}

	// A later process over the same store must find nothing to restore.
	again, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer again.Close()

	if err := again.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s := again.Session(); s.IsAuthenticated || s.User != nil || s.Token != "" {
		t.Fatalf("expected unauthenticated restart, got %+v", s)
	}
	snap := again.MetricsSnapshot().Counters
	if snap[MetricRehydrateEmpty] != 1 || snap[MetricRehydrateCorrupt] != 0 {
		t.Fatalf("expected an empty rehydration, got %v", snap)
	}
}

// blockingKV holds the first read of one slot until release is closed.
type blockingKV struct {
	session.KV
	slot    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == b.slot {
		first := false
		b.once.Do(func() { first = true })
		if first {
			close(b.entered)
			<-b.release
		}
	}
	return b.KV.Get(ctx, key)
}

func TestStartCorruptClearDoesNotEraseConcurrentLogin(t *testing.T) {
	mem := session.NewMemoryKV()
	ctx := context.Background()
	_ = mem.Set(ctx, session.DefaultTokenSlot, "tok_old")
	_ = mem.Set(ctx, session.DefaultUserSlot, "{not json")

	kv := &blockingKV{
		KV:      mem,
		slot:    session.DefaultUserSlot,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	started := make(chan error, 1)
	go func() { started <- m.Start(ctx) }()
	<-kv.entered

	loggedIn := make(chan error, 1)
	go func() { loggedIn <- m.Login(ctx, "a@b.com", "pw") }()
	time.Sleep(20 * time.Millisecond)
	close(kv.release)

	if err := <-started; err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := <-loggedIn; err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	s := m.Session()
	if !s.IsAuthenticated {
		t.Fatalf("expected authenticated session, got %+v", s)
	}
	token, ok := mustGet(t, mem, session.DefaultTokenSlot)
	if !ok || token != s.Token {
		t.Fatalf("stored token %q (present %v) does not match session token %q", token, ok, s.Token)
	}
	if _, ok := mustGet(t, mem, session.DefaultUserSlot); !ok {
		t.Fatal("user slot missing after concurrent login")
	}
}

func TestManagerStartReportsStoreFailure(t *testing.T) {
	kv := &failingKV{KV: session.NewMemoryKV(), err: errKVDown, failGet: true}
	m, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	err = m.Start(context.Background())
	if !errors.Is(err, errKVDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	s := m.Session()
	if s.IsLoading || s.IsAuthenticated {
		t.Fatalf("expected unauthenticated after failed Start, got %+v", s)
	}

	if again := m.Start(context.Background()); !errors.Is(again, errKVDown) {
		t.Fatalf("expected Start to return the first result, got %v", again)
	}
}

func TestLoginSuccess(t *testing.T) {
	tm := startedManager(t, fastConfig())

	if err := tm.Login(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	s := tm.Session()
	if !s.IsAuthenticated || s.IsLoading || s.State != StateAuthenticated {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.User.Email != "alice@example.com" || s.User.Name != "alice" {
		t.Fatalf("unexpected user: %+v", s.User)
	}
	if !strings.HasPrefix(s.User.ID, "user_") {
		t.Fatalf("expected user_ prefix, got %q", s.User.ID)
	}
	if !strings.HasPrefix(s.Token, "mock_token_") {
		t.Fatalf("expected mock_token_ prefix, got %q", s.Token)
	}

	tok, ok := mustGet(t, tm.kv, session.DefaultTokenSlot)
	if !ok || tok != s.Token {
		t.Fatalf("token slot = %q,%v want %q", tok, ok, s.Token)
	}
	raw, ok := mustGet(t, tm.kv, session.DefaultUserSlot)
	if !ok {
		t.Fatal("user slot missing")
	}
	var stored User
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("user slot not JSON: %v", err)
	}
	if stored != *s.User {
		t.Fatalf("stored user %+v != session user %+v", stored, *s.User)
	}

	n := tm.sink.Last(t)
	if n.Kind != NotifySuccess || n.Title != "Login successful" || n.Description != "Welcome back, alice!" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Operation != OpLogin || n.Timestamp.IsZero() {
		t.Fatalf("unexpected notification metadata: %+v", n)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	cases := []struct {
		name, email, password string
	}{
		{"empty email", "", "pw"},
		{"empty password", "a@b.com", ""},
		{"both empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tm := startedManager(t, fastConfig())

			err := tm.Login(context.Background(), tc.email, tc.password)
			if !errors.Is(err, ErrCredentialsRequired) || !IsValidation(err) {
				t.Fatalf("expected ErrCredentialsRequired, got %v", err)
			}

			s := tm.Session()
			if s.IsAuthenticated || s.IsLoading {
				t.Fatalf("session changed on validation failure: %+v", s)
			}
			if tm.kv.Len() != 0 {
				t.Fatal("validation failure wrote to the store")
			}
			n := tm.sink.Last(t)
			if n.Kind != NotifyError || n.Title != "Login failed" || n.Description != "Email and password are required" {
				t.Fatalf("unexpected notification: %+v", n)
			}
		})
	}
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	tm := startedManager(t, fastConfig())
	ctx := context.Background()

	if err := tm.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	before := tm.Session()

	if err := tm.Login(ctx, "", "pw"); err == nil {
		t.Fatal("expected failure")
	}

	after := tm.Session()
	if after.Token != before.Token || after.User.ID != before.User.ID {
		t.Fatalf("failed login replaced session: before %+v after %+v", before, after)
	}
}

func TestLoginPersistFailure(t *testing.T) {
	kv := &failingKV{KV: session.NewMemoryKV(), err: errKVDown, failSet: true}
	tm := startedManager(t, fastConfig(), func(b *Builder) { b.WithStore(kv) })

	err := tm.Login(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrPersistFailed) || !errors.Is(err, errKVDown) {
		t.Fatalf("expected persist failure, got %v", err)
	}
	if tm.Session().IsAuthenticated {
		t.Fatal("in-memory session committed without persistence")
	}
	if got := tm.MetricsSnapshot().Counters[MetricPersistFailure]; got != 1 {
		t.Fatalf("expected persist failure counter 1, got %d", got)
	}
	if n := tm.sink.Last(t); n.Kind != NotifyError || n.Title != "Login failed" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestLoginIsLoadingDuringBackendCall(t *testing.T) {
	cfg := fastConfig()
	gate := newGateBackend(cfg)
	tm := startedManager(t, cfg, func(b *Builder) { b.WithBackend(gate) })

	done := make(chan error, 1)
	go func() {
		done <- tm.Login(context.Background(), "a@b.com", "pw")
	}()

	<-gate.entered
	if s := tm.Session(); !s.IsLoading || s.IsAuthenticated {
		t.Fatalf("expected loading mid-flight, got %+v", s)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if s := tm.Session(); s.IsLoading || !s.IsAuthenticated {
		t.Fatalf("expected settled authenticated session, got %+v", s)
	}
}

func TestLoginValidationWaitsForRoundTrip(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock.Latency = 40 * time.Millisecond
	tm := startedManager(t, cfg)

	start := time.Now()
	err := tm.Login(context.Background(), "", "")
	if !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.Mock.Latency {
		t.Fatalf("validation rejected after %v, before the %v round trip", elapsed, cfg.Mock.Latency)
	}
}

func TestLoginValidationHonoursCancel(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock.Latency = time.Minute
	tm := startedManager(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tm.Login(ctx, "", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tm.Session().IsLoading {
		t.Fatal("loading left set")
	}
}

func TestLoginCancelledContext(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock.Latency = time.Minute
	tm := startedManager(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tm.Login(ctx, "a@b.com", "pw")
	}()

	waitFor(t, "login in flight", func() bool { return tm.Session().IsLoading })
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	s := tm.Session()
	if s.IsLoading || s.IsAuthenticated {
		t.Fatalf("cancelled login changed session: %+v", s)
	}
	if n := tm.sink.Last(t); n.Description != "The request was cancelled." {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestRegisterUsesNameOrLocalPart(t *testing.T) {
	ctx := context.Background()

	tm := startedManager(t, fastConfig())
	if err := tm.Register(ctx, "bob@example.com", "password1", "Bob"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := tm.Session().User.Name; got != "Bob" {
		t.Fatalf("expected name Bob, got %q", got)
	}
	n := tm.sink.Last(t)
	if n.Title != "Registration successful" || n.Operation != OpRegister {
		t.Fatalf("unexpected notification: %+v", n)
	}

	tm2 := startedManager(t, fastConfig())
	if err := tm2.Register(ctx, "carol@example.com", "password1", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := tm2.Session().User.Name; got != "carol" {
		t.Fatalf("expected local part name, got %q", got)
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	tm := startedManager(t, fastConfig())

	err := tm.Register(context.Background(), "", "pw", "Name")
	if !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
	if n := tm.sink.Last(t); n.Title != "Registration failed" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if got := tm.MetricsSnapshot().Counters[MetricRegisterFailure]; got != 1 {
		t.Fatalf("expected register failure counter 1, got %d", got)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	tm := startedManager(t, fastConfig())
	ctx := context.Background()

	if err := tm.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	tm.Logout(ctx)

	s := tm.Session()
	if s.IsAuthenticated || s.User != nil || s.Token != "" || s.State != StateUnauthenticated {
		t.Fatalf("expected cleared session, got %+v", s)
	}
	if tm.kv.Len() != 0 {
		t.Fatalf("expected empty store, %d slots left", tm.kv.Len())
	}
	n := tm.sink.Last(t)
	if n.Title != "Logged out" || n.Description != "You have been successfully logged out." {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestLogoutWhenSignedOutStillNotifies(t *testing.T) {
	tm := startedManager(t, fastConfig())
	tm.Logout(context.Background())

	if n := tm.sink.Last(t); n.Kind != NotifySuccess || n.Operation != OpLogout {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestLogoutWithFullChannelSinkDoesNotBlock(t *testing.T) {
	sink := NewChannelSink(1)
	m, err := New().
		WithConfig(fastConfig()).
		WithStore(session.NewMemoryKV()).
		WithNotificationSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Logout(context.Background())
		m.Logout(context.Background())
		m.Logout(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Logout blocked on a full notification sink")
	}
	if got := sink.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped notifications, got %d", got)
	}
	if n := <-sink.Events(); n.Operation != OpLogout {
		t.Fatalf("unexpected buffered notification: %+v", n)
	}
}

func TestLogoutStoreFailureStillClearsMemory(t *testing.T) {
	kv := &failingKV{KV: session.NewMemoryKV(), err: errKVDown, failRm: true}
	tm := startedManager(t, fastConfig(), func(b *Builder) { b.WithStore(kv) })
	ctx := context.Background()

	if err := tm.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	tm.Logout(ctx)

	if tm.Session().IsAuthenticated {
		t.Fatal("expected in-memory session cleared")
	}
	if got := tm.MetricsSnapshot().Counters[MetricPersistFailure]; got != 1 {
		t.Fatalf("expected persist failure counter 1, got %d", got)
	}
}

func TestLoginThenRestartRestores(t *testing.T) {
	kv := session.NewMemoryKV()
	ctx := context.Background()

	first, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	_ = first.Start(ctx)
	if err := first.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	want := first.Session()
	first.Close()

	second, err := New().WithConfig(fastConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer second.Close()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	got := second.Session()
	if got.Token != want.Token || *got.User != *want.User {
		t.Fatalf("restart mismatch: want %+v got %+v", want, got)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	cfg := fastConfig()
	backend := NewMockBackend(cfg)
	tm := startedManager(t, cfg, func(b *Builder) { b.WithBackend(backend) })
	ctx := context.Background()

	if err := tm.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	email, token := backend.LastPasswordReset()
	if email != "a@b.com" || token == "" {
		t.Fatalf("unexpected reset record %q %q", email, token)
	}
	n := tm.sink.Last(t)
	if n.Title != "Password reset email sent" || !strings.Contains(n.Description, "a@b.com") {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if tm.Session().IsAuthenticated {
		t.Fatal("reset request must not authenticate")
	}

	err := tm.RequestPasswordReset(ctx, "")
	if !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
	if n := tm.sink.Last(t); n.Title != "Password reset request failed" || n.Description != "Email is required" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestResetPasswordLeavesSessionAlone(t *testing.T) {
	tm := startedManager(t, fastConfig())
	ctx := context.Background()

	if err := tm.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	before := tm.Session()

	if err := tm.ResetPassword(ctx, "reset-token", "newpassword"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	after := tm.Session()
	if after.Token != before.Token || !after.IsAuthenticated {
		t.Fatalf("reset changed session: %+v", after)
	}
	if n := tm.sink.Last(t); n.Title != "Password reset successful" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	for _, tc := range [][2]string{{"", "pw"}, {"tok", ""}} {
		err := tm.ResetPassword(ctx, tc[0], tc[1])
		if !errors.Is(err, ErrResetInvalid) {
			t.Fatalf("ResetPassword(%q,%q) = %v, want ErrResetInvalid", tc[0], tc[1], err)
		}
		if n := tm.sink.Last(t); n.Description != "Invalid token or password" {
			t.Fatalf("unexpected notification: %+v", n)
		}
	}
}

func TestOperationsRecordLatency(t *testing.T) {
	tm := startedManager(t, fastConfig())
	ctx := context.Background()

	_ = tm.Login(ctx, "a@b.com", "pw")
	_ = tm.RequestPasswordReset(ctx, "a@b.com")

	var total uint64
	for _, c := range tm.MetricsSnapshot().Histograms[MetricOperationLatency] {
		total += c
	}
	if total != 2 {
		t.Fatalf("expected 2 latency observations, got %d", total)
	}
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	ctx := context.Background()

	if err := m.Start(ctx); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if err := m.Login(ctx, "a", "b"); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	m.Logout(ctx)
	m.Close()
	if s := m.Session(); s.IsAuthenticated {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestNotificationsCarryClockTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tm := startedManager(t, fastConfig(), func(b *Builder) {
		b.withClock(func() time.Time { return at })
	})

	if err := tm.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := tm.sink.Last(t).Timestamp; !got.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, got)
	}
	if first := tm.MetricsSnapshot().Histograms[MetricOperationLatency][0]; first != 1 {
		t.Fatalf("expected a zero-latency observation in the first bucket, got %d", first)
	}
}
