// SPDX-License-Identifier: MPL-2.0

// Package bundle assembles the on-disk form of an addon release: it copies
// planned files into a fresh directory, copies the auxiliary assets a
// manifest lists, prunes build leftovers, and packs the result into a ZIP
// archive.
//
// Bundle naming follows these rules:
//   - Names start with one or more letters
//   - Letters, digits and underscores may follow
//   - Names double as Python package names, so no dots or dashes
//   - Names reserved on Windows (CON, NUL, COM1, ...) are rejected
package bundle

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/addonkit/addonkit/pkg/platform"
)

// nameRegex validates addon names. They become Python package names.
var nameRegex = regexp.MustCompile(`^[a-zA-Z]+[a-zA-Z0-9_]*$`)

// ErrInvalidName is wrapped by ValidateName failures.
var ErrInvalidName = errors.New("invalid addon name")

// ValidateName checks if an addon name is valid.
// Returns nil if valid, or an error describing the problem.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: '%s' must start with a letter and contain only letters, digits and underscores", ErrInvalidName, name)
	}
	if platform.IsWindowsReservedName(name) {
		return fmt.Errorf("%w: '%s' is a reserved file name on Windows", ErrInvalidName, name)
	}
	return nil
}
