package modver

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/internal/fsutil"
	"github.com/vk/modver/pkg/pack"
)

// DefaultCacheTTL is the record cache window applied when no override is
// given.
const DefaultCacheTTL = 300 * time.Second

// defaultTable is the process-wide loaded-units table shared by managers
// that are not handed an explicit one.
var defaultTable = pack.NewTable(0, 0)

// Manager owns every registered version of one package: the labeled
// records, the active-version pointer, and the persisted state file.
//
// One mutex serializes all mutating and active-reading operations.
// Temporary holds it for the caller's whole scope, so scoped overrides are
// never observable half-applied by other goroutines.
type Manager struct {
	name string

	mu      sync.Mutex
	records []*Record // registration order
	index   map[string]*Record
	active  string // "" means no active version

	cacheTTL  time.Duration
	statePath string
	stateSet  bool
	roots     []string
	loader    pack.Loader
	table     *pack.Table
	watch     bool
	watcher   *watcher
}

// Option configures a Manager at construction. Options handed to
// Directory.GetOrCreate only take effect for the first caller.
type Option func(*Manager)

// WithStatePath overrides the state file location. An empty path disables
// persistence entirely.
func WithStatePath(path string) Option {
	return func(m *Manager) {
		m.statePath = path
		m.stateSet = true
	}
}

// WithCacheTTL overrides the record cache window.
func WithCacheTTL(d time.Duration) Option {
	return func(m *Manager) { m.cacheTTL = d }
}

// WithLoader substitutes the pack loader capability.
func WithLoader(l pack.Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithTable substitutes the shared loaded-units table.
func WithTable(t *pack.Table) Option {
	return func(m *Manager) { m.table = t }
}

// WithSearchRoots sets the installed-pack search roots used when the manager
// builds its own loader. Ignored when WithLoader is also given.
func WithSearchRoots(roots ...string) Option {
	return func(m *Manager) { m.roots = roots }
}

// WithWatch starts a filesystem watcher that invalidates a record's cache
// slot when its registered path changes on disk. Staleness detection stays
// lazy either way; the watcher only tightens the window.
func WithWatch() Option {
	return func(m *Manager) { m.watch = true }
}

// NewManager constructs a manager for the named package and restores any
// previously persisted state. A missing or unreadable state file degrades to
// an empty manager with a warning, never a hard failure.
func NewManager(ctx context.Context, name string, opts ...Option) (*Manager, error) {
	if name == "" {
		return nil, errors.New("package name cannot be empty")
	}
	logger := ctxlog.FromContext(ctx)

	m := &Manager{
		name:     name,
		index:    make(map[string]*Record),
		cacheTTL: DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.stateSet {
		path, err := DefaultStatePath(name)
		if err != nil {
			logger.Warn("Cannot determine state file location; persistence disabled.",
				"package", name, "error", err)
		} else {
			m.statePath = path
		}
	}
	if m.table == nil {
		m.table = defaultTable
	}
	if m.loader == nil {
		m.loader = pack.NewLoader(m.table, m.roots...)
	}

	if m.watch {
		w, err := newWatcher(logger)
		if err != nil {
			logger.Warn("Filesystem watcher unavailable; relying on time-based staleness only.",
				"package", name, "error", err)
		} else {
			m.watcher = w
		}
	}

	m.loadState(ctx)
	return m, nil
}

// Name returns the managed package name.
func (m *Manager) Name() string { return m.name }

// Close stops the manager's filesystem watcher, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()
	if w != nil {
		w.close()
	}
}

// newRecord builds a record wired to the manager's loader, table, and cache
// window.
func (m *Manager) newRecord(label, path string, isMain bool, metadata map[string]any) *Record {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Record{
		Name:     m.name,
		Version:  label,
		Path:     path,
		IsMain:   isMain,
		Metadata: metadata,
		ttl:      m.cacheTTL,
		loader:   m.loader,
		table:    m.table,
	}
}

// insertLocked stores rec under its label, overwriting in place so an
// existing label keeps its position in registration order.
func (m *Manager) insertLocked(rec *Record) {
	if old, ok := m.index[rec.Version]; ok {
		for i, r := range m.records {
			if r == old {
				m.records[i] = rec
				break
			}
		}
		old.Invalidate()
	} else {
		m.records = append(m.records, rec)
	}
	m.index[rec.Version] = rec
	if m.watcher != nil && !rec.IsMain {
		m.watcher.add(rec)
	}
}

// RegisterMain resolves the installed build of the package from the loader's
// search roots and registers it. A pack that simply is not installed is not
// an error: the result is (nil, nil). The version label comes from the
// pack's self-reported version, falling back to the literal "main".
func (m *Manager) RegisterMain(ctx context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger := ctxlog.FromContext(ctx)

	p, err := m.loader.Import(ctx, m.name)
	if err != nil {
		var nf *pack.NotFoundError
		if errors.As(err, &nf) {
			logger.Debug("Installed pack not found.", "package", m.name)
			return nil, nil
		}
		return nil, err
	}

	label := p.Version
	if label == "" {
		label = "main"
	}
	path := p.Path
	if filepath.Base(path) == pack.EntryFile {
		path = filepath.Dir(path)
	}

	rec := m.newRecord(label, path, true, nil)
	m.insertLocked(rec)
	if m.active == "" {
		m.active = label
	}
	m.saveState(ctx)
	logger.Info("Registered installed pack.", "package", m.name, "version", label, "path", path)
	return rec, nil
}

// Register adds a version at an explicit path. The path must exist and the
// record must survive one eager verification load; otherwise the
// registration is rejected with a *ValidationError and nothing is mutated.
func (m *Manager) Register(ctx context.Context, label, path string, metadata map[string]any) (*Record, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, &ValidationError{Package: m.name, Version: label, Path: path, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !fsutil.Exists(path) {
		return nil, &ValidationError{Package: m.name, Version: label, Path: path,
			Err: errors.New("path does not exist")}
	}

	rec := m.newRecord(label, path, false, metadata)
	if _, err := rec.Load(ctx, false); err != nil {
		return nil, &ValidationError{Package: m.name, Version: label, Path: path, Err: err}
	}

	m.insertLocked(rec)
	if m.active == "" {
		m.active = label
	}
	m.saveState(ctx)
	ctxlog.FromContext(ctx).Info("Registered version.", "package", m.name, "version", label, "path", path)
	return rec, nil
}

// Unregister removes a version and reports whether anything was removed.
// Removing the active version reassigns active to the first remaining
// record in registration order, or clears it when none remain.
func (m *Manager) Unregister(ctx context.Context, label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.index[label]
	if !ok {
		return false
	}

	if m.active == label {
		m.active = ""
		for _, r := range m.records {
			if r.Version != label {
				m.active = r.Version
				break
			}
		}
	}

	delete(m.index, label)
	for i, r := range m.records {
		if r == rec {
			m.records = append(m.records[:i], m.records[i+1:]...)
			break
		}
	}
	if m.watcher != nil {
		m.watcher.remove(rec)
	}
	rec.Invalidate()

	m.saveState(ctx)
	ctxlog.FromContext(ctx).Info("Unregistered version.",
		"package", m.name, "version", label, "active", m.active)
	return true
}

// Use makes label the active version, persists the switch, and returns the
// loaded pack.
func (m *Manager) Use(ctx context.Context, label string) (*pack.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.index[label]
	if !ok {
		return nil, &VersionNotFoundError{Package: m.name, Version: label}
	}

	m.active = label
	m.saveState(ctx)
	return rec.Load(ctx, false)
}

// Get loads a version without touching the active pointer. An empty label
// means the active version; when none is set Get returns ErrNoActiveVersion.
func (m *Manager) Get(ctx context.Context, label string) (*pack.Pack, error) {
	m.mu.Lock()
	if label == "" {
		label = m.active
	}
	if label == "" {
		m.mu.Unlock()
		return nil, ErrNoActiveVersion
	}
	rec, ok := m.index[label]
	m.mu.Unlock()

	if !ok {
		return nil, &VersionNotFoundError{Package: m.name, Version: label}
	}
	return rec.Load(ctx, false)
}

// Active loads the currently active version. It is the call-the-manager
// shorthand and shares Get's error contract.
func (m *Manager) Active(ctx context.Context) (*pack.Pack, error) {
	return m.Get(ctx, "")
}

// ActiveRecord returns the active version's record, or nil when no version
// is active.
func (m *Manager) ActiveRecord() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == "" {
		return nil
	}
	return m.index[m.active]
}

// Has reports whether label is registered.
func (m *Manager) Has(label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[label]
	return ok
}

// List returns one Info per registered version in registration order, each
// annotated with whether it is currently active.
func (m *Manager) List(ctx context.Context) []Info {
	m.mu.Lock()
	recs := make([]*Record, len(m.records))
	copy(recs, m.records)
	active := m.active
	m.mu.Unlock()

	infos := make([]Info, 0, len(recs))
	for _, r := range recs {
		info := r.Info(ctx)
		info.Active = r.Version == active
		infos = append(infos, info)
	}
	return infos
}
