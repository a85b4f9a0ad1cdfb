package credstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It survives nothing, which makes it the
// right default for tests and for embedders that handle persistence
// themselves.
type Memory struct {
	mu          sync.Mutex
	cred        Credential
	identity    Identity
	hasCred     bool
	hasIdentity bool
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadCredential returns the stored credential, or a zero Credential when
// absent.
func (m *Memory) LoadCredential(context.Context) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasCred || !m.cred.Present() {
		return Credential{}, nil
	}
	return m.cred, nil
}

// SaveCredential stores the credential. A non-present pair clears instead.
func (m *Memory) SaveCredential(_ context.Context, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !cred.Present() {
		m.cred = Credential{}
		m.hasCred = false
		return nil
	}
	m.cred = cred
	m.hasCred = true
	return nil
}

// ClearCredential removes the stored credential.
func (m *Memory) ClearCredential(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = Credential{}
	m.hasCred = false
	return nil
}

// LoadIdentity returns the stored identity snapshot, or a zero Identity when
// absent.
func (m *Memory) LoadIdentity(context.Context) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasIdentity {
		return Identity{}, nil
	}
	return m.identity, nil
}

// SaveIdentity stores the identity snapshot.
func (m *Memory) SaveIdentity(_ context.Context, identity Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !identity.Present() {
		m.identity = Identity{}
		m.hasIdentity = false
		return nil
	}
	m.identity = identity
	m.hasIdentity = true
	return nil
}

// ClearIdentity removes the stored identity snapshot.
func (m *Memory) ClearIdentity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = Identity{}
	m.hasIdentity = false
	return nil
}
