package pack

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// manifestFile represents the top-level structure of a pack manifest for
// decoding with gohcl.
type manifestFile struct {
	Module  *moduleBlock   `hcl:"module,block"`
	Runners []*runnerBlock `hcl:"runner,block"`
	Body    hcl.Body       `hcl:",remain"`
}

// moduleBlock carries the pack's self-reported identity. Every field is
// optional; a manifest consisting only of runner blocks is valid.
type moduleBlock struct {
	Name        string `hcl:"name,optional"`
	Version     string `hcl:"version,optional"`
	Author      string `hcl:"author,optional"`
	Description string `hcl:"description,optional"`
}

// runnerBlock represents a `runner "type" { ... }` block.
type runnerBlock struct {
	Type        string        `hcl:"type,label"`
	Description string        `hcl:"description,optional"`
	Inputs      []*inputBlock `hcl:"input,block"`
}

// inputBlock represents an `input "name" { ... }` block within a runner.
type inputBlock struct {
	Name        string     `hcl:"name,label"`
	Type        string     `hcl:"type,optional"`
	Description string     `hcl:"description,optional"`
	Default     *cty.Value `hcl:"default,optional"`
}
