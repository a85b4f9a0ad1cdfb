package authkit

import (
	"context"
	"errors"
	"testing"

	"github.com/clipstream/authkit/credstore"
)

func TestBootstrapWithoutCredentialSkips(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	session, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if session.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", session.Status)
	}
	if v := client.MetricsSnapshot().Counters[MetricBootstrapSkipped]; v != 1 {
		t.Fatalf("expected 1 skipped bootstrap, got %d", v)
	}
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()

	// First client logs in and persists; the second simulates a restart.
	first, doneFirst := newTestClient(t, backend, nil, store)
	if _, err := first.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	doneFirst()

	baseline := backend.refreshCount()
	client, done := newTestClient(t, backend, nil, store)
	defer done()

	session, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if session.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", session.Status)
	}
	if session.Identity.Username != "alice" {
		t.Fatalf("expected confirmed identity alice, got %q", session.Identity.Username)
	}
	if backend.refreshCount() != baseline {
		t.Fatal("restoring a live credential must not renew")
	}
	if v := client.MetricsSnapshot().Counters[MetricBootstrapVerified]; v != 1 {
		t.Fatalf("expected 1 verified bootstrap, got %d", v)
	}
}

func TestBootstrapStaleAccessTokenIsDiscardedWithoutRenewal(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()

	first, doneFirst := newTestClient(t, backend, nil, store)
	if _, err := first.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	doneFirst()

	// The access token died while the app was closed. Bootstrap treats the
	// rejection as expected and defers any renewal to the first protected
	// call; it must not touch the refresh endpoint itself.
	backend.expireAccessTokens()
	baseline := backend.refreshCount()

	client, done := newTestClient(t, backend, nil, store)
	defer done()

	session, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if session.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated after rejection, got %s", session.Status)
	}
	if backend.refreshCount() != baseline {
		t.Fatal("bootstrap must never call the refresh endpoint")
	}

	cred, err := store.LoadCredential(context.Background())
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if cred.Present() {
		t.Fatalf("expected rejected credential to be discarded, got %+v", cred)
	}
	if v := client.MetricsSnapshot().Counters[MetricBootstrapRejected]; v != 1 {
		t.Fatalf("expected 1 rejected bootstrap, got %d", v)
	}
}

func TestBootstrapRejectedCredentialIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()

	first, doneFirst := newTestClient(t, backend, nil, store)
	if _, err := first.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	doneFirst()

	backend.revokeAll()

	client, done := newTestClient(t, backend, nil, store)
	defer done()

	session, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if session.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated after rejection, got %s", session.Status)
	}

	cred, err := store.LoadCredential(context.Background())
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if cred.Present() {
		t.Fatalf("expected rejected credential to be discarded, got %+v", cred)
	}
	if v := client.MetricsSnapshot().Counters[MetricBootstrapRejected]; v != 1 {
		t.Fatalf("expected 1 rejected bootstrap, got %d", v)
	}
}

func TestBootstrapUnreachableBackendKeepsCredential(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewMemory()

	first, doneFirst := newTestClient(t, backend, nil, store)
	if _, err := first.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	doneFirst()

	client, done := newTestClient(t, backend, func(cfg *Config) {
		cfg.API.BaseURL = "http://127.0.0.1:1"
	}, store)
	defer done()

	session, err := client.Bootstrap(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if session.Status != StatusVerifying {
		t.Fatalf("expected verifying while unreachable, got %s", session.Status)
	}

	cred, err := store.LoadCredential(context.Background())
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if !cred.Present() {
		t.Fatal("credential must survive an unreachable backend")
	}
}
