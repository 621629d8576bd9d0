package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Mock.Latency = 0
	cfg.Mock.VerificationLatency = 0
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type recordingSink struct {
	mu     sync.Mutex
	events []Notification
}

func (s *recordingSink) Notify(_ context.Context, n Notification) {
	s.mu.Lock()
	s.events = append(s.events, n)
	s.mu.Unlock()
}

func (s *recordingSink) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) Last(t *testing.T) Notification {
	t.Helper()
	all := s.All()
	if len(all) == 0 {
		t.Fatal("expected at least one notification")
	}
	return all[len(all)-1]
}

// failingKV wraps a KV and fails the selected calls with err.
type failingKV struct {
	session.KV
	err     error
	failSet bool
	failRm  bool
	failGet bool
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, f.err
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return f.err
	}
	return f.KV.Set(ctx, key, value)
}

func (f *failingKV) Remove(ctx context.Context, key string) error {
	if f.failRm {
		return f.err
	}
	return f.KV.Remove(ctx, key)
}

var errKVDown = errors.New("kv down")

// gateBackend blocks every call until release is closed.
type gateBackend struct {
	*MockBackend
	entered chan struct{}
	release chan struct{}
	err     error
}

func newGateBackend(cfg Config) *gateBackend {
	return &gateBackend{
		MockBackend: NewMockBackend(cfg),
		entered:     make(chan struct{}, 8),
		release:     make(chan struct{}),
	}
}

func (g *gateBackend) hold(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gateBackend) Login(ctx context.Context, email, password string) (Credentials, error) {
	if err := g.hold(ctx); err != nil {
		return Credentials{}, err
	}
	return g.MockBackend.Login(ctx, email, password)
}

func (g *gateBackend) DisableTwoFactor(ctx context.Context, u User) error {
	if err := g.hold(ctx); err != nil {
		return err
	}
	return g.MockBackend.DisableTwoFactor(ctx, u)
}

type testManager struct {
	*Manager
	kv   *session.MemoryKV
	sink *recordingSink
}

func newTestManager(t *testing.T, cfg Config, opts ...func(*Builder)) testManager {
	t.Helper()

	kv := session.NewMemoryKV()
	sink := &recordingSink{}
	b := New().
		WithConfig(cfg).
		WithStore(kv).
		WithNotificationSink(sink)
	for _, opt := range opts {
		opt(b)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	return testManager{Manager: m, kv: kv, sink: sink}
}

func startedManager(t *testing.T, cfg Config, opts ...func(*Builder)) testManager {
	t.Helper()
	tm := newTestManager(t, cfg, opts...)
	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return tm
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func mustGet(t *testing.T, kv session.KV, key string) (string, bool) {
	t.Helper()
	v, ok, err := kv.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return v, ok
}
