package authkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clipstream/authkit/credstore"
	"github.com/clipstream/authkit/internal/httpapi"
)

type fakeUser struct {
	id       string
	username string
	email    string
	password string
}

// fakeBackend implements the auth API contract in memory for tests. Token
// state is guarded by mu; refreshCalls is atomic so tests can assert renewal
// cardinality without holding the lock.
type fakeBackend struct {
	mu            sync.Mutex
	users         map[string]fakeUser
	access        map[string]string
	refresh       map[string]string
	tokenSeq      int
	refreshCalls  int64
	refreshDelay  time.Duration
	rejectRefresh atomic.Bool

	// rejectNewAccess keeps the protected routes rejecting every bearer even
	// after a successful renewal.
	rejectNewAccess atomic.Bool
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		users:   make(map[string]fakeUser),
		access:  make(map[string]string),
		refresh: make(map[string]string),
	}
	b.seedUser("alice", "alice@example.com", "correct-horse")
	return b
}

func (b *fakeBackend) seedUser(username, email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = fakeUser{
		id:       fmt.Sprintf("user-%d", len(b.users)+1),
		username: username,
		email:    email,
		password: password,
	}
}

func (b *fakeBackend) expireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]string)
}

func (b *fakeBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]string)
	b.refresh = make(map[string]string)
}

func (b *fakeBackend) refreshCount() int64 {
	return atomic.LoadInt64(&b.refreshCalls)
}

func (b *fakeBackend) issueLocked(userID string) (string, string) {
	b.tokenSeq++
	access := fmt.Sprintf("access-%d", b.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d", b.tokenSeq)
	b.access[access] = userID
	b.refresh[refresh] = userID
	return access, refresh
}

func (b *fakeBackend) userByID(userID string) (fakeUser, bool) {
	for _, u := range b.users {
		if u.id == userID {
			return u, true
		}
	}
	return fakeUser{}, false
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method + " " + r.URL.Path {
	case "POST /auth/login":
		b.handleLogin(w, r)
	case "POST /auth/register":
		b.handleRegister(w, r)
	case "GET /auth/me":
		b.handleMe(w, r)
	case "POST /auth/refresh-token":
		b.handleRefresh(w, r)
	default:
		b.handleProtected(w, r)
	}
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()

	user, ok := b.users[body.Email]
	if !ok || user.password != body.Password {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"code": "invalid_credentials", "message": "wrong email or password"})
		return
	}

	access, refresh := b.issueLocked(user.id)
	writeTestJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         testUserPayload(user),
	})
}

func (b *fakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.Username == "" || body.Email == "" {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"code": "validation", "message": "missing fields"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[body.Email]; exists {
		writeTestJSON(w, http.StatusConflict, map[string]string{"code": "conflict", "message": "account exists"})
		return
	}

	user := fakeUser{
		id:       fmt.Sprintf("user-%d", len(b.users)+1),
		username: body.Username,
		email:    body.Email,
		password: body.Password,
	}
	b.users[body.Email] = user

	access, refresh := b.issueLocked(user.id)
	writeTestJSON(w, http.StatusCreated, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         testUserPayload(user),
	})
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.access[bearerOf(r)]
	if !ok {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "invalid token"})
		return
	}
	user, ok := b.userByID(userID)
	if !ok {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "unknown user"})
		return
	}
	writeTestJSON(w, http.StatusOK, map[string]any{"user": testUserPayload(user)})
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	atomic.AddInt64(&b.refreshCalls, 1)

	if d := b.refreshDelay; d > 0 {
		time.Sleep(d)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.refresh[body.RefreshToken]
	if !ok || b.rejectRefresh.Load() {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "invalid refresh token"})
		return
	}

	b.tokenSeq++
	access := fmt.Sprintf("access-%d", b.tokenSeq)
	b.access[access] = userID
	writeTestJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (b *fakeBackend) handleProtected(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.access[bearerOf(r)]; !ok || b.rejectNewAccess.Load() {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "invalid token"})
		return
	}
	if r.URL.Path == "/videos/broken" {
		writeTestJSON(w, http.StatusInternalServerError, map[string]string{"code": "internal", "message": "boom"})
		return
	}
	writeTestJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
}

func bearerOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func testUserPayload(user fakeUser) map[string]string {
	return map[string]string{
		"id":       user.id,
		"username": user.username,
		"email":    user.email,
		"role":     "member",
	}
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newDeadAPI returns a wire client pointed at a port nothing listens on.
func newDeadAPI(t *testing.T) *httpapi.Client {
	t.Helper()
	return httpapi.New("http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond}, "authkit-test")
}

func newTestClient(t *testing.T, backend *fakeBackend, mutate func(*Config), store credstore.Store) (*Client, func()) {
	t.Helper()

	server := httptest.NewServer(backend)

	cfg := defaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	builder := New().WithConfig(cfg)
	if store != nil {
		builder = builder.WithStore(store)
	}

	client, err := builder.Build()
	if err != nil {
		server.Close()
		t.Fatalf("build failed: %v", err)
	}

	return client, func() {
		client.Close()
		server.Close()
	}
}
