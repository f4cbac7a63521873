package modver

import (
	"errors"
	"fmt"
)

// ErrNoActiveVersion is returned when an operation needs an active version
// and none is set. Both Get with an empty label and Active return it.
var ErrNoActiveVersion = errors.New("no active version set")

// VersionNotFoundError reports a version label that is not registered with
// the manager for the named package.
type VersionNotFoundError struct {
	Package string
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found for package %s", e.Version, e.Package)
}

// LoadError reports that a registered version could not be materialized into
// a pack. It carries what the resolver observed about the path so that the
// failure is diagnosable without re-running the heuristics by hand.
type LoadError struct {
	Package string
	Version string
	Path    string
	Exists  bool
	IsDir   bool
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load pack %s version %s from %s (exists=%t, dir=%t): %v",
		e.Package, e.Version, e.Path, e.Exists, e.IsDir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidationError reports a rejected registration: the path is missing, the
// label is malformed, or the eager verification load failed.
type ValidationError struct {
	Package string
	Version string
	Path    string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot register version %s of %s at %s: %v",
		e.Version, e.Package, e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
