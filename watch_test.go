package goSession

import (
	"context"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestWatchDeliversCurrentSnapshot(t *testing.T) {
	tm := newTestManager(t, fastConfig())

	ch, cancel := tm.Watch(4)
	defer cancel()

	if s := recv(t, ch); s.State != StateLoading {
		t.Fatalf("expected loading snapshot first, got %+v", s)
	}

	_ = tm.Start(context.Background())
	if s := recv(t, ch); s.State != StateUnauthenticated || s.IsLoading {
		t.Fatalf("expected unauthenticated after Start, got %+v", s)
	}
}

func TestWatchSeesLoginTransitions(t *testing.T) {
	tm := startedManager(t, fastConfig())

	ch, cancel := tm.Watch(16)
	defer cancel()
	recv(t, ch)

	if err := tm.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	var sawLoading, sawAuth bool
	var last Snapshot
	for i := 0; i < 3; i++ {
		last = recv(t, ch)
		if last.IsLoading {
			sawLoading = true
		}
		if last.IsAuthenticated {
			sawAuth = true
		}
	}
	if !sawLoading || !sawAuth {
		t.Fatalf("expected loading and authenticated snapshots, loading=%v auth=%v", sawLoading, sawAuth)
	}
	if last.IsLoading || !last.IsAuthenticated {
		t.Fatalf("expected settled authenticated snapshot last, got %+v", last)
	}
}

func TestWatchSlowConsumerKeepsNewest(t *testing.T) {
	tm := startedManager(t, fastConfig())

	ch, cancel := tm.Watch(1)
	defer cancel()

	_ = tm.Login(context.Background(), "a@b.com", "pw")
	tm.Logout(context.Background())

	s := recv(t, ch)
	if s.IsAuthenticated || s.IsLoading {
		t.Fatalf("expected newest snapshot (signed out), got %+v", s)
	}
}

func TestWatchCancelAndClose(t *testing.T) {
	tm := newTestManager(t, fastConfig())

	ch1, cancel1 := tm.Watch(1)
	ch2, _ := tm.Watch(1)
	recv(t, ch1)
	recv(t, ch2)

	cancel1()
	cancel1()
	if _, ok := <-ch1; ok {
		t.Fatal("expected cancelled channel closed")
	}

	tm.Close()
	if _, ok := <-ch2; ok {
		t.Fatal("expected channel closed by Close")
	}

	ch3, _ := tm.Watch(1)
	if _, ok := <-ch3; ok {
		t.Fatal("expected Watch after Close to return a closed channel")
	}
}
