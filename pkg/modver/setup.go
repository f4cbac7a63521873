package modver

import (
	"context"
	"errors"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/pkg/pack"
)

// VersionSpec declares one version for Setup. The slice form keeps
// registration order deterministic.
type VersionSpec struct {
	Label    string
	Path     string
	Metadata map[string]any
}

// SetupConfig drives Setup.
type SetupConfig struct {
	// RegisterMain asks Setup to also register the installed build of the
	// package. Its absence is a warning, not a failure.
	RegisterMain bool

	// Versions are registered in order.
	Versions []VersionSpec

	// Default, when set, becomes the active version. An unknown default is
	// a warning, not a failure.
	Default string

	// Options configure the manager if Setup constructs it.
	Options []Option
}

// Setup composes get-or-create, main registration, bulk version
// registration and the default switch into one call. A nil directory means
// the process-wide default directory.
func Setup(ctx context.Context, d *Directory, name string, cfg SetupConfig) (*Manager, error) {
	if d == nil {
		d = Default()
	}
	logger := ctxlog.FromContext(ctx)

	m, err := d.GetOrCreate(ctx, name, cfg.Options...)
	if err != nil {
		return nil, err
	}

	if cfg.RegisterMain {
		rec, err := m.RegisterMain(ctx)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			logger.Warn("Installed pack not found; skipping main registration.", "package", name)
		}
	}

	for _, vs := range cfg.Versions {
		if _, err := m.Register(ctx, vs.Label, vs.Path, vs.Metadata); err != nil {
			return nil, err
		}
	}

	if cfg.Default != "" {
		if _, err := m.Use(ctx, cfg.Default); err != nil {
			var nf *VersionNotFoundError
			if !errors.As(err, &nf) {
				return nil, err
			}
			logger.Warn("Default version is not registered; active version unchanged.",
				"package", name, "version", cfg.Default)
		}
	}

	return m, nil
}

// Import loads one version of a package, creating its manager on demand. An
// empty label means the active version. A nil directory means the default
// directory.
func Import(ctx context.Context, d *Directory, name, label string) (*pack.Pack, error) {
	if d == nil {
		d = Default()
	}
	m, err := d.GetOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, label)
}

// ScopeFunc runs a callable inside a temporary version override.
type ScopeFunc func(ctx context.Context, fn func(ctx context.Context, p *pack.Pack) error) error

// Scoped builds a reusable wrapper that runs any callable inside
// Temporary(label) on the named package's manager. The label is validated
// up front: an unknown version fails here, not on first use.
func Scoped(ctx context.Context, d *Directory, name, label string) (ScopeFunc, error) {
	if d == nil {
		d = Default()
	}
	m, err := d.GetOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	if !m.Has(label) {
		return nil, &VersionNotFoundError{Package: name, Version: label}
	}

	return func(ctx context.Context, fn func(ctx context.Context, p *pack.Pack) error) error {
		sc, err := m.Temporary(ctx, label)
		if err != nil {
			return err
		}
		defer sc.Close()
		return fn(ctx, sc.Pack())
	}, nil
}
