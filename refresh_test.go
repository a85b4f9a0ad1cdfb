package authkit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/clipstream/authkit/credstore"
)

func TestRenewalRejectionResetsSession(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()
	client, done := newTestClient(t, backend, nil, store)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// The backend no longer recognizes either token: the renewal behind the
	// 401 is rejected and the session must reset.
	backend.revokeAll()

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/videos/feed"})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	snap := client.Snapshot()
	if snap.Status != StatusLoggedOut {
		t.Fatalf("expected logged_out after rejected renewal, got %s", snap.Status)
	}
	if snap.Credential.Present() {
		t.Fatalf("expected cleared credential, got %+v", snap.Credential)
	}

	cred, err := store.LoadCredential(context.Background())
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if cred.Present() {
		t.Fatalf("expected cleared store after reset, got %+v", cred)
	}

	counters := client.MetricsSnapshot().Counters
	if counters[MetricSessionReset] == 0 {
		t.Fatal("expected a session reset to be counted")
	}
}

func TestRenewalTransportFailureResetsSession(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()
	client, done := newTestClient(t, backend, func(cfg *Config) {
		cfg.API.RefreshTimeout = 2 * time.Second
	}, store)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Point renewals at a dead port by swapping the wire client. A network
	// failure is treated exactly like an explicit rejection: the session
	// resets instead of lingering with a credential that cannot be renewed.
	client.api = newDeadAPI(t)

	_, rerr := client.requestRefresh(context.Background())
	if !errors.Is(rerr, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", rerr)
	}

	snap := client.Snapshot()
	if snap.Status != StatusLoggedOut {
		t.Fatalf("expected logged_out after transport failure, got %s", snap.Status)
	}
	if snap.Credential.Present() {
		t.Fatalf("expected cleared credential, got %+v", snap.Credential)
	}

	cred, err := store.LoadCredential(context.Background())
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if cred.Present() {
		t.Fatalf("expected cleared store, got %+v", cred)
	}
	if v := client.MetricsSnapshot().Counters[MetricSessionReset]; v == 0 {
		t.Fatal("expected a session reset to be counted")
	}
}

func TestRenewalTimeoutResetsSession(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 300 * time.Millisecond
	client, done := newTestClient(t, backend, func(cfg *Config) {
		cfg.API.RefreshTimeout = 50 * time.Millisecond
	}, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := client.requestRefresh(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for a timed-out renewal, got %v", err)
	}
	if got := client.Snapshot().Status; got != StatusLoggedOut {
		t.Fatalf("expected logged_out after timeout, got %s", got)
	}
}

func TestRenewalWithoutTokenFailsFast(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	baseline := backend.refreshCount()
	if _, err := client.requestRefresh(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	if backend.refreshCount() != baseline {
		t.Fatal("expected no backend call without a refresh token")
	}
}

func TestLogoutDuringRenewalDiscardsResolution(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 100 * time.Millisecond
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	started := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		close(started)
		_, err := client.requestRefresh(context.Background())
		result <- err
	}()

	<-started
	// Let the renewal call reach the backend, then yank the session.
	time.Sleep(20 * time.Millisecond)
	client.Logout(context.Background())

	if err := <-result; !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for discarded resolution, got %v", err)
	}

	snap := client.Snapshot()
	if snap.Status != StatusLoggedOut {
		t.Fatalf("expected logged_out to stick, got %s", snap.Status)
	}
	if snap.Credential.Present() {
		t.Fatalf("stale renewal leaked a credential: %+v", snap.Credential)
	}

	deadline := time.After(2 * time.Second)
	for client.MetricsSnapshot().Counters[MetricRefreshStaleDiscarded] == 0 {
		select {
		case <-deadline:
			t.Fatal("stale discard was never counted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
