package store

import (
	"context"
	"sync"

	"github.com/spritekiln/spritekiln/core/catalog"
)

// Memory is an in-memory Store used by tests and the CLI's dry-run paths.
type Memory struct {
	mu          sync.RWMutex
	catalog     catalog.Catalog
	sprite      string
	fingerprint string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Catalog(ctx context.Context) (catalog.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(catalog.Catalog, len(m.catalog))
	copy(out, m.catalog)
	return out, nil
}

func (m *Memory) SaveCatalog(ctx context.Context, c catalog.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = make(catalog.Catalog, len(c))
	copy(m.catalog, c)
	return nil
}

func (m *Memory) Sprite(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sprite, nil
}

func (m *Memory) SaveSprite(ctx context.Context, sprite string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sprite = sprite
	return nil
}

func (m *Memory) Fingerprint(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fingerprint, nil
}

func (m *Memory) SaveFingerprint(ctx context.Context, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fingerprint = fp
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = nil
	m.sprite = ""
	m.fingerprint = ""
	return nil
}

func (m *Memory) Close() error {
	return nil
}
