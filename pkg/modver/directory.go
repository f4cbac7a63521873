package modver

import (
	"context"
	"sort"
	"sync"
)

// Directory maps package names to their managers, creating each one lazily
// on first request. Exactly one manager exists per package name within a
// directory.
type Directory struct {
	mu       sync.Mutex
	managers map[string]*Manager
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{managers: make(map[string]*Manager)}
}

// defaultDirectory backs the package-level convenience helpers.
var defaultDirectory = NewDirectory()

// Default returns the process-wide directory used by Setup, Import and
// Scoped when no explicit directory is passed.
func Default() *Directory {
	return defaultDirectory
}

// GetOrCreate returns the manager for name, constructing and storing one on
// first request. Options are applied only by that first construction; later
// callers get the existing manager unchanged.
func (d *Directory) GetOrCreate(ctx context.Context, name string, opts ...Option) (*Manager, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := d.managers[name]; ok {
		return m, nil
	}
	m, err := NewManager(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	d.managers[name] = m
	return m, nil
}

// Names returns the directory's package names in sorted order.
func (d *Directory) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.managers))
	for name := range d.managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset closes every manager and empties the directory. Intended for test
// isolation.
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range d.managers {
		m.Close()
	}
	d.managers = make(map[string]*Manager)
}
