package service

import (
	"context"
	"sync"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

// memStore is an in-memory RegistryStore that counts calls.
type memStore struct {
	mu  sync.Mutex
	reg *model.Registry

	loadErr   error
	updateErr error

	loads   int
	updates int
}

var _ repository.RegistryStore = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{reg: model.NewRegistry()} }

func (m *memStore) Load(context.Context) (*model.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.reg.Clone(), nil
}

func (m *memStore) Save(_ context.Context, reg *model.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg = reg.Clone()
	return nil
}

func (m *memStore) Update(_ context.Context, fn func(reg *model.Registry) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	work := m.reg.Clone()
	if err := fn(work); err != nil {
		return err
	}
	m.reg = work
	return nil
}

func (m *memStore) calls() (loads, updates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.updates
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testKDF(t *testing.T) *pkgcrypto.KDF {
	t.Helper()
	k, err := pkgcrypto.NewKDF([]byte("service-test-salt"), 1000)
	if err != nil {
		t.Fatalf("NewKDF: %v", err)
	}
	return k
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// newTestVault returns a vault with the default 3 attempts / 60s policy on a fake clock.
func newTestVault(t *testing.T) (*Vault, *memStore, *fakeClock) {
	t.Helper()
	store := newMemStore()
	clk := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	lim := limiter.New(3, 60*time.Second, clk.now)
	return NewVault(store, testKDF(t), lim, nil), store, clk
}
