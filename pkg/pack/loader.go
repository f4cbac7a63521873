package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/internal/fsutil"
)

// EnvSearchPath is the environment variable holding extra pack search roots,
// separated by the OS path list separator.
const EnvSearchPath = "MODVER_PATH"

// NotFoundError reports that no installed pack matched the requested name in
// any of the searched roots.
type NotFoundError struct {
	Name  string
	Roots []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pack %q not found in search roots %v", e.Name, e.Roots)
}

// Loader materializes packs. Import resolves an installed pack by name from
// the configured search roots; LoadFile parses one specific manifest under a
// caller-chosen identifier.
type Loader interface {
	Import(ctx context.Context, name string, extraRoots ...string) (*Pack, error)
	LoadFile(ctx context.Context, id, path string) (*Pack, error)
}

// HCLLoader is the standard Loader backed by HCL manifests on disk.
type HCLLoader struct {
	roots []string
	table *Table
}

// NewLoader creates an HCLLoader sharing the given table. When no roots are
// provided the default search roots are used.
func NewLoader(table *Table, roots ...string) *HCLLoader {
	if len(roots) == 0 {
		roots = DefaultRoots()
	}
	return &HCLLoader{roots: roots, table: table}
}

// DefaultRoots returns the standard pack search roots: every entry of
// $MODVER_PATH followed by ~/.modver/packs.
func DefaultRoots() []string {
	var roots []string
	if env := os.Getenv(EnvSearchPath); env != "" {
		for _, p := range filepath.SplitList(env) {
			if p != "" {
				roots = append(roots, p)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".modver", "packs"))
	}
	return roots
}

// Roots returns the loader's configured search roots.
func (l *HCLLoader) Roots() []string {
	return l.roots
}

// Import resolves an installed pack by name. Extra roots are searched before
// the configured ones. The pack is loaded under its name as identifier, so
// repeated imports of the same name share one table entry.
func (l *HCLLoader) Import(ctx context.Context, name string, extraRoots ...string) (*Pack, error) {
	logger := ctxlog.FromContext(ctx)

	if l.table != nil {
		if p, ok := l.table.Get(name); ok {
			logger.Debug("Import satisfied from loaded-units table.", "name", name)
			return p, nil
		}
	}

	roots := append(append([]string{}, extraRoots...), l.roots...)
	for _, root := range roots {
		// A pack installs either as a directory with an entry manifest or as
		// a single manifest file named after the pack.
		dirEntry := filepath.Join(root, name, EntryFile)
		if fsutil.FileExists(dirEntry) {
			return l.LoadFile(ctx, name, dirEntry)
		}
		fileEntry := filepath.Join(root, name+Extension)
		if fsutil.FileExists(fileEntry) {
			return l.LoadFile(ctx, name, fileEntry)
		}
	}

	logger.Debug("Pack not found in any search root.", "name", name, "roots", roots)
	return nil, &NotFoundError{Name: name, Roots: roots}
}

// Installed returns the names of packs resolvable from the loader's search
// roots, sorted and de-duplicated. A pack counts as installed when a root
// holds either "<name>/module.hcl" or "<name>.hcl"; manifests nested any
// deeper are not importable by name and are skipped.
func (l *HCLLoader) Installed() ([]string, error) {
	seen := make(map[string]struct{})
	for _, root := range l.roots {
		if !fsutil.DirExists(root) {
			continue
		}
		files, err := fsutil.FindFilesByExtension(root, Extension)
		if err != nil {
			return nil, fmt.Errorf("scanning search root %s: %w", root, err)
		}
		for _, f := range files {
			rel, err := filepath.Rel(root, f)
			if err != nil {
				continue
			}
			parts := strings.Split(rel, string(filepath.Separator))
			switch {
			case len(parts) == 1:
				seen[strings.TrimSuffix(parts[0], Extension)] = struct{}{}
			case len(parts) == 2 && parts[1] == EntryFile:
				seen[parts[0]] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadFile parses the manifest at path and registers the result in the
// shared table under id. A live table entry for id short-circuits the parse.
func (l *HCLLoader) LoadFile(ctx context.Context, id, path string) (*Pack, error) {
	logger := ctxlog.FromContext(ctx)

	if l.table != nil {
		if p, ok := l.table.Get(id); ok {
			logger.Debug("LoadFile satisfied from loaded-units table.", "id", id)
			return p, nil
		}
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var mf manifestFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &mf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	p, err := newPackFromManifest(id, path, &mf)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	if l.table != nil {
		l.table.Put(id, p)
	}
	logger.Debug("Pack loaded.", "id", id, "path", path, "runners", len(p.Runners))
	return p, nil
}

// newPackFromManifest translates the decoded HCL schema into the Pack model,
// validating runner and input declarations along the way.
func newPackFromManifest(id, path string, mf *manifestFile) (*Pack, error) {
	p := &Pack{
		ID:      id,
		Name:    id,
		Path:    path,
		Runners: make(map[string]*RunnerDef, len(mf.Runners)),
	}
	if idx := strings.LastIndex(p.Name, "_"); idx > 0 {
		// Synthesized "{name}_{label}" identifiers report the bare name.
		p.Name = p.Name[:idx]
	}
	if mf.Module != nil {
		if mf.Module.Name != "" {
			p.Name = mf.Module.Name
		}
		p.Version = mf.Module.Version
		p.Author = mf.Module.Author
		p.Description = mf.Module.Description
	}

	for _, rb := range mf.Runners {
		if _, exists := p.Runners[rb.Type]; exists {
			return nil, fmt.Errorf("duplicate runner type %q", rb.Type)
		}
		def := &RunnerDef{
			Type:        rb.Type,
			Description: rb.Description,
			Inputs:      make(map[string]*InputDef, len(rb.Inputs)),
		}
		for _, ib := range rb.Inputs {
			in, err := newInputDef(ib)
			if err != nil {
				return nil, fmt.Errorf("runner %q: %w", rb.Type, err)
			}
			if _, exists := def.Inputs[in.Name]; exists {
				return nil, fmt.Errorf("runner %q: duplicate input %q", rb.Type, in.Name)
			}
			def.Inputs[in.Name] = in
		}
		p.Runners[rb.Type] = def
	}

	return p, nil
}
