package pack

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTableSize bounds the number of packs kept in a Table.
	DefaultTableSize = 256

	// DefaultTableTTL is how long a table entry stays valid. It matches the
	// default record cache window so both layers go stale together.
	DefaultTableTTL = 5 * time.Minute
)

// Table is the process-wide loaded-units table: identifier -> *Pack.
//
// The loader consults it before parsing so that two records pointing at the
// same identifier share one load, and the version core evicts from it on
// force-reload so a stale entry cannot short-circuit a fresh parse. Entries
// also age out on their own via the expirable LRU backing store.
type Table struct {
	lru *expirable.LRU[string, *Pack]
}

// NewTable creates a Table. Size and ttl fall back to the package defaults
// when zero.
func NewTable(size int, ttl time.Duration) *Table {
	if size <= 0 {
		size = DefaultTableSize
	}
	if ttl <= 0 {
		ttl = DefaultTableTTL
	}
	return &Table{lru: expirable.NewLRU[string, *Pack](size, nil, ttl)}
}

// Get returns the pack registered under id, if any.
func (t *Table) Get(id string) (*Pack, bool) {
	return t.lru.Get(id)
}

// Put registers a pack under id, replacing any previous entry.
func (t *Table) Put(id string, p *Pack) {
	t.lru.Add(id, p)
}

// Evict removes the entry for id and reports whether one was present.
func (t *Table) Evict(id string) bool {
	return t.lru.Remove(id)
}

// Purge drops every entry. Intended for test isolation.
func (t *Table) Purge() {
	t.lru.Purge()
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.lru.Len()
}
