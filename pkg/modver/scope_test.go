package modver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modver/pkg/pack"
)

func TestTemporaryRestoresActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	sc, err := m.Temporary(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", sc.Pack().Version)
	assert.Equal(t, "v2", sc.Version())
	sc.Close()

	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
	assertActiveInvariant(t, m)
}

func TestTemporaryCloseIsIdempotent(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)

	sc, err := m.Temporary(ctx, "v1")
	require.NoError(t, err)
	sc.Close()
	sc.Close()

	// The lock must be free again.
	assert.True(t, m.Has("v1"))
}

func TestTemporaryUnknownVersion(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)

	_, err = m.Temporary(ctx, "ghost")
	var nf *VersionNotFoundError
	require.ErrorAs(t, err, &nf)

	// The failed attempt left nothing behind: active unchanged, lock free.
	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
}

func TestTemporaryRestoresOnLoadFailure(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	dir2 := writePackDir(t, "2.0.0")
	rec2, err := m.Register(ctx, "v2", dir2, nil)
	require.NoError(t, err)

	// Break v2 after registration and drop its cache so the scoped load
	// fails.
	require.NoError(t, os.Remove(filepath.Join(dir2, pack.EntryFile)))
	rec2.Invalidate()

	_, err = m.Temporary(ctx, "v2")
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)

	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
}

func TestTemporaryBlocksConcurrentReaders(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	sc, err := m.Temporary(ctx, "v2")
	require.NoError(t, err)

	// A concurrent Active call must wait out the scope and then observe the
	// restored version, never the override.
	got := make(chan string, 1)
	go func() {
		p, err := m.Active(ctx)
		if err != nil {
			got <- err.Error()
			return
		}
		got <- p.Version
	}()

	select {
	case v := <-got:
		t.Fatalf("Active returned %q while scope was open", v)
	case <-time.After(50 * time.Millisecond):
	}

	sc.Close()
	select {
	case v := <-got:
		assert.Equal(t, "1.0.0", v)
	case <-time.After(time.Second):
		t.Fatal("Active did not return after scope closed")
	}
}
