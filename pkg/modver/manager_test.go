package modver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modver/pkg/pack"
)

func TestRegisterFirstVersionBecomesActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)
	dir := writePackDir(t, "1.0.0")

	rec, err := m.Register(ctx, "1.0.0", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", rec.Version)
	assert.Equal(t, dir, rec.Path)

	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
	assertActiveInvariant(t, m)
}

func TestRegisterSecondVersionKeepsActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
}

func TestRegisterRejectsBadLabel(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)
	dir := writePackDir(t, "1.0.0")

	for _, label := range []string{"", "has space", "../escape", "-leading"} {
		_, err := m.Register(ctx, label, dir, nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "label %q", label)
	}
	assert.False(t, m.Has(""))
	assertActiveInvariant(t, m)
}

func TestRegisterRejectsMissingPath(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", filepath.Join(t.TempDir(), "nope"), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "demo", verr.Package)
	assert.Equal(t, "v1", verr.Version)
}

func TestRegisterRejectsBrokenPackWithoutMutation(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, pack.EntryFile), []byte("module {\n"), 0o644))

	_, err := m.Register(ctx, "v1", dir, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.False(t, m.Has("v1"))
	_, err = m.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActiveVersion)
}

func TestRegisterOverwriteKeepsPosition(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	// Re-registering v1 at a new path replaces it in place.
	_, err = m.Register(ctx, "v1", writePackDir(t, "1.5.0"), nil)
	require.NoError(t, err)

	infos := m.List(ctx)
	require.Len(t, infos, 2)
	assert.Equal(t, "v1", infos[0].Version)
	assert.Equal(t, "1.5.0", infos[0].ActualVersion)
	assert.Equal(t, "v2", infos[1].Version)
}

func TestUseSwitchesActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	p, err := m.Use(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.Version)

	p, err = m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.Version)
	assertActiveInvariant(t, m)
}

func TestUseUnknownVersion(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Use(ctx, "ghost")
	var nf *VersionNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "demo", nf.Package)
	assert.Equal(t, "ghost", nf.Version)
}

func TestGetExplicitLabelLeavesActiveAlone(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	p, err := m.Get(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.Version)

	p, err = m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
}

func TestGetWithoutActiveVersion(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNoActiveVersion)
	_, err = m.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActiveVersion)
	assert.Nil(t, m.ActiveRecord())
}

func TestUnregisterReassignsActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)

	assert.True(t, m.Unregister(ctx, "v1"))
	assert.False(t, m.Has("v1"))

	// Active falls to the first remaining record.
	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.Version)
	assertActiveInvariant(t, m)
}

func TestUnregisterLastVersionClearsActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), nil)
	require.NoError(t, err)

	assert.True(t, m.Unregister(ctx, "v1"))
	_, err = m.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActiveVersion)
	assertActiveInvariant(t, m)
}

func TestUnregisterUnknownVersion(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.Unregister(quietCtx(), "ghost"))
}

func TestListReportsRegistrationOrderAndActive(t *testing.T) {
	ctx := quietCtx()
	m := newTestManager(t)

	_, err := m.Register(ctx, "v1", writePackDir(t, "1.0.0"), map[string]any{"channel": "stable"})
	require.NoError(t, err)
	_, err = m.Register(ctx, "v2", writePackDir(t, "2.0.0"), nil)
	require.NoError(t, err)
	_, err = m.Use(ctx, "v2")
	require.NoError(t, err)

	infos := m.List(ctx)
	require.Len(t, infos, 2)
	assert.Equal(t, "v1", infos[0].Version)
	assert.False(t, infos[0].Active)
	assert.Equal(t, "stable", infos[0].Metadata["channel"])
	assert.Equal(t, "v2", infos[1].Version)
	assert.True(t, infos[1].Active)
}

func TestRegisterMainFromSearchRoot(t *testing.T) {
	ctx := quietCtx()
	root := t.TempDir()
	packDir := filepath.Join(root, "demo")
	require.NoError(t, os.MkdirAll(packDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(packDir, pack.EntryFile), []byte(packManifest("3.1.4")), 0o644))

	m := newTestManager(t, WithSearchRoots(root))

	rec, err := m.RegisterMain(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsMain)
	assert.Equal(t, "3.1.4", rec.Version)
	assert.Equal(t, packDir, rec.Path)

	p, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3.1.4", p.Version)
}

func TestRegisterMainNotInstalled(t *testing.T) {
	m := newTestManager(t)

	rec, err := m.RegisterMain(quietCtx())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestManagerRequiresName(t *testing.T) {
	_, err := NewManager(quietCtx(), "")
	require.Error(t, err)
}
