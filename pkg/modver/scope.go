package modver

import (
	"context"
	"sync"

	"github.com/vk/modver/pkg/pack"
)

// Scope is a temporary version override. It is created by
// Manager.Temporary, which hands the caller the loaded pack with the
// manager's lock held; Close restores the previously active version and
// releases the lock on every exit path.
type Scope struct {
	m     *Manager
	label string
	prev  string
	pk    *pack.Pack

	once sync.Once
}

// Temporary switches the active version to label for the duration of the
// returned Scope. The switch is deliberately not persisted: only permanent
// Use calls touch the state file.
//
// The manager's lock is held until Scope.Close runs, so every other
// goroutine that takes the lock afterwards observes the restored state.
// Calling back into the same manager from inside the scope deadlocks;
// nested scoped use on one manager is not supported.
func (m *Manager) Temporary(ctx context.Context, label string) (*Scope, error) {
	m.mu.Lock()

	rec, ok := m.index[label]
	if !ok {
		m.mu.Unlock()
		return nil, &VersionNotFoundError{Package: m.name, Version: label}
	}

	prev := m.active
	m.active = label

	p, err := rec.Load(ctx, false)
	if err != nil {
		m.active = prev
		m.mu.Unlock()
		return nil, err
	}

	return &Scope{m: m, label: label, prev: prev, pk: p}, nil
}

// Pack returns the pack loaded for the scope's version.
func (s *Scope) Pack() *pack.Pack { return s.pk }

// Version returns the label the scope switched to.
func (s *Scope) Version() string { return s.label }

// Close restores the previously active version and releases the manager's
// lock. It is idempotent and safe to defer immediately after Temporary.
func (s *Scope) Close() {
	s.once.Do(func() {
		s.m.active = s.prev
		s.m.mu.Unlock()
	})
}
