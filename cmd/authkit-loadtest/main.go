// Command authkit-loadtest measures gateway throughput and renewal behavior
// against an in-process stub backend. It reports latency percentiles for a
// steady-state phase and for a renewal-storm phase where every access token
// is invalidated mid-flight.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	authkit "github.com/clipstream/authkit"
	"github.com/clipstream/authkit/credstore"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase")
		storms      = flag.Int("storms", 10, "token invalidations during the storm phase")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	backend := newStubBackend()
	server := httptest.NewServer(backend)
	defer server.Close()

	cfg := authkit.LoadConfigFromEnv("")
	cfg.API.BaseURL = server.URL
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	client, err := authkit.New().
		WithConfig(cfg).
		WithStore(credstore.NewMemory()).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client build failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Login(ctx, "load@example.com", "load"); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	steady := runPhase(ctx, client, *ops, *concurrency, nil)

	var stormTrigger func(i int)
	stormEvery := *ops / (*storms + 1)
	if stormEvery > 0 {
		stormTrigger = func(i int) {
			if i%stormEvery == 0 {
				backend.expireAccessTokens()
			}
		}
	}
	storm := runPhase(ctx, client, *ops, *concurrency, stormTrigger)

	fmt.Println("---- results ----")
	printStats("steady", steady)
	printStats("storm", storm)

	snap := client.MetricsSnapshot()
	fmt.Printf("renewals: backend=%d success=%d joined=%d retries=%d\n",
		backend.refreshCalls(),
		snap.Counters[authkit.MetricRefreshSuccess],
		snap.Counters[authkit.MetricRefreshJoined],
		snap.Counters[authkit.MetricGatewayAuthRetry],
	)
}

func runPhase(ctx context.Context, client *authkit.Client, ops, concurrency int, trigger func(i int)) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				if trigger != nil {
					trigger(i)
				}

				t0 := time.Now()
				resp, err := client.Do(ctx, authkit.Request{Method: http.MethodGet, Path: "/videos/feed"})
				d := time.Since(t0)
				if err != nil || resp.StatusCode != http.StatusOK {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// ---------------------------------------------------------------------------
// Stub backend
// ---------------------------------------------------------------------------

type stubBackend struct {
	mu       sync.Mutex
	mux      *http.ServeMux
	access   map[string]bool
	refresh  map[string]bool
	refreshN int64
	tokenSeq int64
}

func newStubBackend() *stubBackend {
	b := &stubBackend{
		access:  make(map[string]bool),
		refresh: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/refresh-token", b.handleRefresh)
	mux.HandleFunc("GET /videos/feed", b.handleFeed)
	b.mux = mux

	return b
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

func (b *stubBackend) expireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]bool)
}

func (b *stubBackend) refreshCalls() int64 {
	return atomic.LoadInt64(&b.refreshN)
}

func (b *stubBackend) handleLogin(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	b.tokenSeq++
	access := fmt.Sprintf("access-%d", b.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d", b.tokenSeq)
	b.access[access] = true
	b.refresh[refresh] = true
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user": map[string]string{
			"id":       "load-user",
			"username": "load",
			"email":    "load@example.com",
			"role":     "member",
		},
	})
}

func (b *stubBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	atomic.AddInt64(&b.refreshN, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.refresh[body.RefreshToken] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "invalid refresh token"})
		return
	}

	b.tokenSeq++
	access := fmt.Sprintf("access-%d", b.tokenSeq)
	b.access[access] = true
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (b *stubBackend) handleFeed(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	ok := b.access[token]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": []string{"v1"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
