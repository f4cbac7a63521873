package modver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/internal/fsutil"
	"github.com/vk/modver/pkg/pack"
)

// resolveAndLoad turns the record's registered path into a pack. Registered
// paths are forgiving: users hand in the pack directory, the manifest file,
// the manifest without its extension, or a path with a stray trailing
// separator. The layouts are tried in strict order and the first match wins.
func (r *Record) resolveAndLoad(ctx context.Context) (*pack.Pack, error) {
	logger := ctxlog.FromContext(ctx)

	if r.table != nil {
		// The synthesized unit ID is owned by this record alone, so the table
		// entry is only ever a leftover from a previous load. Evicting it here
		// keeps the record's TTL authoritative over staleness.
		r.table.Evict(r.unitID())
	}

	dir := filepath.Dir(r.Path)
	base := filepath.Base(r.Path)

	switch {
	case fsutil.DirExists(r.Path):
		// The path is the pack directory; the entry manifest must be there.
		entry := filepath.Join(r.Path, pack.EntryFile)
		if !fsutil.FileExists(entry) {
			return nil, r.newLoadError(fmt.Errorf("no %s found in %s", pack.EntryFile, r.Path))
		}
		return r.loadManifest(ctx, entry)

	case fsutil.FileExists(r.Path + pack.Extension):
		// Manifest path given without its extension.
		return r.loadManifest(ctx, r.Path+pack.Extension)

	case strings.HasSuffix(r.Path, pack.Extension) && fsutil.FileExists(r.Path):
		return r.loadManifest(ctx, r.Path)

	case fsutil.FileExists(filepath.Join(dir, base+pack.Extension)):
		// The path parses like a directory (trailing separator) but names a
		// manifest file stem.
		return r.loadManifest(ctx, filepath.Join(dir, base+pack.Extension))

	case fsutil.FileExists(filepath.Join(dir, base, pack.EntryFile)):
		// The path omitted nothing but cleaned differently; re-joining the
		// segments finds the pack directory's entry manifest.
		return r.loadManifest(ctx, filepath.Join(dir, base, pack.EntryFile))

	default:
		// Last resort: treat the parent as a search root and the base as an
		// installed pack name.
		logger.Debug("No direct layout matched, falling back to import.",
			"package", r.Name, "version", r.Version, "root", dir, "name", base)
		p, err := r.loader.Import(ctx, base, dir)
		if err != nil {
			return nil, r.newLoadError(err)
		}
		return p, nil
	}
}

// loadManifest loads one resolved manifest file under the record's
// synthesized identifier.
func (r *Record) loadManifest(ctx context.Context, manifest string) (*pack.Pack, error) {
	p, err := r.loader.LoadFile(ctx, r.unitID(), manifest)
	if err != nil {
		return nil, r.newLoadError(err)
	}
	return p, nil
}

// newLoadError snapshots what the resolver can observe about the registered
// path alongside the underlying cause.
func (r *Record) newLoadError(cause error) *LoadError {
	return &LoadError{
		Package: r.Name,
		Version: r.Version,
		Path:    r.Path,
		Exists:  fsutil.Exists(r.Path),
		IsDir:   fsutil.DirExists(r.Path),
		Err:     cause,
	}
}
