package modver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLabel(t *testing.T) {
	valid := []string{
		"1.0.0",
		"v2",
		"2024.01.15",
		"beta+build.7",
		"legacy_api",
		"rc-1",
	}
	for _, label := range valid {
		assert.NoError(t, ValidateLabel(label), "label %q", label)
	}

	invalid := []string{
		"",
		" ",
		"has space",
		"../escape",
		"-leading-dash",
		".hidden",
		"_leading",
		"slash/inside",
		"semi;colon",
	}
	for _, label := range invalid {
		assert.Error(t, ValidateLabel(label), "label %q", label)
	}
}
