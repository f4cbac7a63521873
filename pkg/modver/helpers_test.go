package modver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/pkg/pack"
)

// quietCtx returns a context whose logger discards everything, keeping the
// expected-warning paths (corrupt state files, missing packs) quiet.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func packManifest(version string) string {
	return fmt.Sprintf(`
module {
  name        = "demo"
  version     = %q
  author      = "vk"
  description = "demo pack"
}

runner "print" {
  input "message" {
    type    = "string"
    default = "hello"
  }
}
`, version)
}

// writePackDir lays out a pack directory with an entry manifest reporting
// the given version and returns the directory path.
func writePackDir(t *testing.T, version string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo-"+version)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pack.EntryFile), []byte(packManifest(version)), 0o644))
	return dir
}

// newTestManager builds a hermetic manager: fresh loaded-units table, state
// file in a temp dir, and a search root that holds nothing.
func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithTable(pack.NewTable(0, 0)),
		WithStatePath(filepath.Join(t.TempDir(), "state.json")),
		WithSearchRoots(filepath.Join(t.TempDir(), "roots")),
	}
	m, err := NewManager(quietCtx(), "demo", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// assertActiveInvariant checks that the active label, when set, is a key of
// the registry.
func assertActiveInvariant(t *testing.T, m *Manager) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != "" {
		_, ok := m.index[m.active]
		assert.True(t, ok, "active version %q is not registered", m.active)
	}
}
