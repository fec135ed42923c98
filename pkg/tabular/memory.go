package tabular

import (
	"context"
	"sync"
)

// MemoryBackend keeps a table in memory. Tests use it as a fixture and to inject save failures.
type MemoryBackend struct {
	mu      sync.Mutex
	table   *Table
	saves   int
	saveErr error
	loadErr error
}

// NewMemoryBackend returns a backend seeded with table; nil means "nothing stored yet".
func NewMemoryBackend(table *Table) *MemoryBackend {
	return &MemoryBackend{table: table.Clone()}
}

func (m *MemoryBackend) Load(ctx context.Context, columns []string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.table == nil {
		return NewTable(columns), nil
	}
	return m.table.Clone(), nil
}

func (m *MemoryBackend) Save(ctx context.Context, table *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.table = table.Clone()
	m.saves++
	return nil
}

func (m *MemoryBackend) Location() string { return "memory" }

// FailSaves makes every following Save return err; nil restores normal behavior.
func (m *MemoryBackend) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// FailLoads makes every following Load return err; nil restores normal behavior.
func (m *MemoryBackend) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// Snapshot returns a copy of the stored table, or nil when nothing was saved.
func (m *MemoryBackend) Snapshot() *Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Clone()
}

// Saves returns how many successful saves happened.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Put replaces the stored table, simulating a write by another process.
func (m *MemoryBackend) Put(table *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = table.Clone()
}
