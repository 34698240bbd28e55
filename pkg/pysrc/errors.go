// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"errors"
	"fmt"
)

// ErrInvalidSyntax is the sentinel wrapped by ParseError.
var ErrInvalidSyntax = errors.New("invalid python syntax")

// ParseError reports a source file that could not be parsed.
type ParseError struct {
	Path string
	// Line is the 1-based line of the first error node, 0 when unknown.
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error in %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("syntax error in %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidSyntax for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrInvalidSyntax }
