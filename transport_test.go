package authkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransportAttachesBearer(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	server := httptest.NewServer(backend)
	defer server.Close()

	httpClient := &http.Client{Transport: client.Transport(nil)}
	resp, err := httpClient.Get(server.URL + "/videos/feed")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with attached bearer, got %d", resp.StatusCode)
	}
}

func TestTransportRenewsAndReplays(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	backend.expireAccessTokens()

	server := httptest.NewServer(backend)
	defer server.Close()

	httpClient := &http.Client{Transport: client.Transport(nil)}
	resp, err := httpClient.Get(server.URL + "/videos/feed")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after transparent renewal, got %d", resp.StatusCode)
	}
	if v := client.MetricsSnapshot().Counters[MetricGatewayAuthRetry]; v != 1 {
		t.Fatalf("expected 1 replay, got %d", v)
	}
}

func TestTransportRespectsExistingAuthorization(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	if _, err := client.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/echo", nil)
	req.Header.Set("Authorization", "Bearer caller-owned")

	httpClient := &http.Client{Transport: client.Transport(nil)}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "Bearer caller-owned" {
		t.Fatalf("caller-set Authorization was overwritten: %q", got)
	}
}

func TestTransportUnauthenticatedPassthrough(t *testing.T) {
	backend := newFakeBackend()
	client, done := newTestClient(t, backend, nil, nil)
	defer done()

	server := httptest.NewServer(backend)
	defer server.Close()

	baseline := backend.refreshCount()
	httpClient := &http.Client{Transport: client.Transport(nil)}
	resp, err := httpClient.Get(server.URL + "/videos/feed")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 passthrough, got %d", resp.StatusCode)
	}
	if backend.refreshCount() != baseline {
		t.Fatal("unauthenticated round trip must not renew")
	}
}
