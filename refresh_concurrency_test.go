package authkit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestConcurrentRejectionsSingleRenewal(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 50 * time.Millisecond
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	baseline := backend.refreshCount()

	// Invalidate every access token so all in-flight requests hit a 401 and
	// need a renewal at the same time.
	backend.expireAccessTokens()

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	statuses := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/videos/feed"})
			results <- err
			if resp != nil {
				statuses <- resp.StatusCode
			}
		}()
	}
	wg.Wait()
	close(results)
	close(statuses)

	for err := range results {
		if err != nil {
			t.Fatalf("unexpected gateway error: %v", err)
		}
	}
	for code := range statuses {
		if code != http.StatusOK {
			t.Fatalf("expected 200 after renewal, got %d", code)
		}
	}

	if got := backend.refreshCount() - baseline; got != 1 {
		t.Fatalf("expected exactly one renewal call, got %d", got)
	}

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("expected 1 renewal success, got %d", snap.Counters[MetricRefreshSuccess])
	}
	if snap.Counters[MetricRefreshJoined] != n-1 {
		t.Fatalf("expected %d joined waiters, got %d", n-1, snap.Counters[MetricRefreshJoined])
	}
}

func TestDirectConcurrentRenewalsShareOneOp(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 30 * time.Millisecond
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	baseline := backend.refreshCount()

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)

	creds := make(chan Credential, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			cred, err := client.requestRefresh(context.Background())
			if err != nil {
				t.Errorf("renewal failed: %v", err)
				return
			}
			creds <- cred
		}()
	}
	wg.Wait()
	close(creds)

	var first Credential
	for cred := range creds {
		if first.AccessToken == "" {
			first = cred
			continue
		}
		if cred != first {
			t.Fatalf("waiters settled with different credentials: %+v vs %+v", first, cred)
		}
	}

	if got := backend.refreshCount() - baseline; got != 1 {
		t.Fatalf("expected exactly one renewal call, got %d", got)
	}
}

func TestRejectedRenewalSettlesAllWaiters(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 30 * time.Millisecond
	backend.rejectRefresh.Store(true)
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	baseline := backend.refreshCount()

	const n = 3
	var wg sync.WaitGroup
	wg.Add(n)

	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := client.requestRefresh(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// A goroutine arriving after the reset settled sees the already-torn-down
	// session instead of the shared rejection; both are terminal.
	for err := range errs {
		if !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrNoRefreshToken) {
			t.Fatalf("every waiter must see the rejection, got %v", err)
		}
	}

	if got := backend.refreshCount() - baseline; got != 1 {
		t.Fatalf("expected one renewal call for all waiters, got %d", got)
	}
	if client.Snapshot().Status != StatusLoggedOut {
		t.Fatalf("expected logged_out after rejection, got %s", client.Snapshot().Status)
	}
}

func TestAbandonedWaiterDoesNotAbortRenewal(t *testing.T) {
	backend := newFakeBackend()
	backend.refreshDelay = 80 * time.Millisecond
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := client.requestRefresh(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error for abandoned waiter, got %v", err)
	}

	// The detached renewal still completes and installs the new credential.
	deadline := time.After(2 * time.Second)
	for {
		if client.Snapshot().Status == StatusAuthenticated &&
			client.MetricsSnapshot().Counters[MetricRefreshSuccess] == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("renewal did not settle; session %s", client.Snapshot().Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
