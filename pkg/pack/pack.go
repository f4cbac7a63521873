package pack

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

const (
	// EntryFile is the manifest file name that marks a directory as a pack.
	EntryFile = "module.hcl"

	// Extension is the manifest file extension.
	Extension = ".hcl"
)

// Pack is a fully loaded module pack. Instances are produced by a Loader and
// treated as immutable by everything downstream.
type Pack struct {
	// ID is the identifier the pack was loaded under. For packs resolved by
	// installed name this is the name itself; for versioned loads the core
	// synthesizes "{name}_{label}" to keep concurrent versions apart.
	ID string

	// Name is the pack's self-reported name, falling back to ID when the
	// manifest omits a module block.
	Name string

	// Path is the manifest file the pack was parsed from.
	Path string

	// Self-reported metadata from the manifest's module block. All optional.
	Version     string
	Author      string
	Description string

	// Runners maps runner type to its definition.
	Runners map[string]*RunnerDef
}

// RunnerDef describes one runner declared by a pack.
type RunnerDef struct {
	Type        string
	Description string
	Inputs      map[string]*InputDef
}

// InputDef describes a single declared runner input.
type InputDef struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

func (p *Pack) String() string {
	if p.Version != "" {
		return fmt.Sprintf("pack %s@%s (%d runners)", p.Name, p.Version, len(p.Runners))
	}
	return fmt.Sprintf("pack %s (%d runners)", p.Name, len(p.Runners))
}
