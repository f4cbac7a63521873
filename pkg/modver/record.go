package modver

import (
	"context"
	"sync"
	"time"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/pkg/pack"
)

// Record describes one registered version of a package: its label, where it
// lives on disk, and a single-slot cache of the last successful load.
//
// Invariant: cached is non-nil iff loadedAt is non-zero.
type Record struct {
	Name     string
	Version  string
	Path     string
	IsMain   bool
	Metadata map[string]any

	mu       sync.Mutex
	cached   *pack.Pack
	loadedAt time.Time

	ttl    time.Duration
	loader pack.Loader
	table  *pack.Table
}

// Info is the listing form of a Record. The ActualVersion, Author and Doc
// fields are best-effort: they are populated only when the record's pack
// loads successfully.
type Info struct {
	Name     string
	Version  string
	Path     string
	IsMain   bool
	Metadata map[string]any

	ActualVersion string
	Author        string
	Doc           string

	Active bool
}

// unitID is the identifier the record's pack is loaded under. Main records
// use the canonical package name; versioned records synthesize
// "{name}_{label}" so concurrent versions never collide in the shared
// loaded-units table.
func (r *Record) unitID() string {
	if r.IsMain {
		return r.Name
	}
	return r.Name + "_" + r.Version
}

// Load returns the record's pack, materializing it when the cache slot is
// empty, stale, or force is set.
//
// The cache window is fixed: a hit does not refresh the load timestamp, so a
// record re-resolves from disk at most once per TTL no matter how often it
// is read.
func (r *Record) Load(ctx context.Context, force bool) (*pack.Pack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && !force && time.Since(r.loadedAt) < r.ttl {
		return r.cached, nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pack version.",
		"package", r.Name, "version", r.Version, "path", r.Path, "main", r.IsMain, "force", force)

	var (
		p   *pack.Pack
		err error
	)
	if r.IsMain {
		if force && r.table != nil {
			// Drop the host-side registration so the re-import is not
			// short-circuited by the loaded-units table.
			r.table.Evict(r.unitID())
		}
		p, err = r.loader.Import(ctx, r.Name)
		if err != nil {
			return nil, r.newLoadError(err)
		}
	} else {
		p, err = r.resolveAndLoad(ctx)
		if err != nil {
			logger.Error("Pack load failed.", "package", r.Name, "version", r.Version, "error", err)
			return nil, err
		}
	}

	r.cached = p
	r.loadedAt = time.Now()
	return p, nil
}

// Info assembles the record's listing entry. Load failures are swallowed;
// the enrichment fields simply stay empty.
func (r *Record) Info(ctx context.Context) Info {
	info := Info{
		Name:     r.Name,
		Version:  r.Version,
		Path:     r.Path,
		IsMain:   r.IsMain,
		Metadata: r.Metadata,
	}

	if p, err := r.Load(ctx, false); err == nil {
		info.ActualVersion = p.Version
		info.Author = p.Author
		info.Doc = p.Description
	}

	return info
}

// Invalidate drops the cache slot and the record's entry in the shared
// loaded-units table. The next Load re-resolves from disk.
func (r *Record) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cached = nil
	r.loadedAt = time.Time{}
	if r.table != nil {
		r.table.Evict(r.unitID())
	}
}
