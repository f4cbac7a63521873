package pack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePutGetEvict(t *testing.T) {
	table := NewTable(0, 0)
	p := &Pack{ID: "demo_1.0"}

	_, ok := table.Get("demo_1.0")
	assert.False(t, ok)

	table.Put("demo_1.0", p)
	got, ok := table.Get("demo_1.0")
	require.True(t, ok)
	assert.Same(t, p, got)

	assert.True(t, table.Evict("demo_1.0"))
	assert.False(t, table.Evict("demo_1.0"))
	_, ok = table.Get("demo_1.0")
	assert.False(t, ok)
}

func TestTableEntriesExpire(t *testing.T) {
	table := NewTable(8, 20*time.Millisecond)
	table.Put("demo_1.0", &Pack{ID: "demo_1.0"})

	_, ok := table.Get("demo_1.0")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = table.Get("demo_1.0")
	assert.False(t, ok)
}

func TestTablePurge(t *testing.T) {
	table := NewTable(0, 0)
	table.Put("a", &Pack{ID: "a"})
	table.Put("b", &Pack{ID: "b"})
	require.Equal(t, 2, table.Len())

	table.Purge()
	assert.Equal(t, 0, table.Len())
}
