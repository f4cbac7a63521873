package modver

import (
	"errors"
	"fmt"
	"regexp"
)

// labelRegexp accepts version labels that are safe to embed in synthesized
// pack identifiers and state file contents. The first character must be
// alphanumeric so labels can never masquerade as dotfiles or path segments.
var labelRegexp = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.+-]*$`)

// ValidateLabel checks that label is usable as a version key.
func ValidateLabel(label string) error {
	if label == "" {
		return errors.New("version label cannot be empty")
	}
	if !labelRegexp.MatchString(label) {
		return fmt.Errorf("invalid version label %q", label)
	}
	return nil
}
