package vault

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"portal-go/internal/portal"
)

// MemoryVault holds exports in memory. Safe for concurrent use.
type MemoryVault struct {
	name    string
	mu      sync.RWMutex
	exports map[string][]byte
}

var _ portal.Vault = (*MemoryVault)(nil)

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{name: name, exports: make(map[string][]byte)}
}

func (m *MemoryVault) Name() string { return m.name }

func (m *MemoryVault) Put(name string, r io.Reader, size int64) error {
	if err := CheckName(name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[name] = data
	return nil
}

func (m *MemoryVault) Get(name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.exports[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("export %s: %w", name, portal.ErrNotFound)
	}
	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

func (m *MemoryVault) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *MemoryVault) ValidateSetup() error { return nil }
