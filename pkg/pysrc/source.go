// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"fmt"
	"strings"
)

const (
	// ImportAbsolute is `import a.b` or `from a.b import c`.
	ImportAbsolute ImportKind = iota
	// ImportRelative is `from .a import b` (one or more leading dots).
	ImportRelative
	// ImportWildcard is `from a import *`, absolute or relative.
	ImportWildcard
)

type (
	// ImportKind classifies an import statement.
	ImportKind int

	// Span is a half-open byte range [Start, End) into the source text.
	Span struct {
		Start int
		End   int
	}

	// ModuleReference is a dotted module path as written in an import.
	ModuleReference struct {
		// Path is the dotted path without leading dots or wildcard marker.
		// It may be empty for `from . import x`.
		Path string
		// Level is the number of leading dots; 0 means absolute.
		Level int
		// Wildcard is set for `from m import *` references.
		Wildcard bool
	}

	// ImportedName is one target in an import's name list.
	ImportedName struct {
		Name  string
		Alias string
		// Span covers the name (and its alias clause when present).
		Span Span
	}

	// ImportStatement is one import found in a source file. A plain
	// `import a, b` statement yields one ImportStatement per target; they share
	// the same Span.
	ImportStatement struct {
		Kind   ImportKind
		Module ModuleReference
		Names  []ImportedName
		// Plain marks the `import a.b [as c]` form.
		Plain bool
		// Line is the full text of the source line the statement starts on.
		Line string
		// Row is the 1-based line number of the statement.
		Row  int
		File string
		// Span covers the whole statement.
		Span Span
		// ModuleSpan covers only the module path portion (the dots included).
		ModuleSpan Span
	}

	// SourceFile is a parsed Python source file. It is not modified after
	// parsing.
	SourceFile struct {
		Path    string
		Source  []byte
		Imports []ImportStatement
		Classes []ClassDecl
		// Dicts holds module-level dictionaries with string keys, such as
		// `bl_info`. Each value is the list of literal elements: one element
		// for a scalar, several for a tuple or list. Non-literal values are
		// omitted.
		Dicts map[string]map[string][]string
	}
)

func (k ImportKind) String() string {
	switch k {
	case ImportAbsolute:
		return "absolute"
	case ImportRelative:
		return "relative"
	case ImportWildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("ImportKind(%d)", int(k))
	}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// ParseModuleReference parses the textual form used in import statements:
// leading dots for relative depth, and an optional trailing ".*".
func ParseModuleReference(s string) ModuleReference {
	ref := ModuleReference{}
	for strings.HasPrefix(s, ".") {
		ref.Level++
		s = s[1:]
	}
	if s == "*" {
		ref.Wildcard = true
		s = ""
	} else if strings.HasSuffix(s, ".*") {
		ref.Wildcard = true
		s = strings.TrimSuffix(s, ".*")
	}
	ref.Path = s
	return ref
}

// String renders the reference the way it would appear in source, with the
// wildcard marker appended.
func (r ModuleReference) String() string {
	s := strings.Repeat(".", r.Level) + r.Path
	if r.Wildcard {
		if r.Path == "" {
			return s + "*"
		}
		return s + ".*"
	}
	return s
}

// IsRelative reports whether the reference has at least one leading dot.
func (r ModuleReference) IsRelative() bool { return r.Level > 0 }

// Segments splits the dotted path. An empty path yields nil.
func (r ModuleReference) Segments() []string {
	if r.Path == "" {
		return nil
	}
	return strings.Split(r.Path, ".")
}

// IsBare reports whether the path is a single segment without dots.
func (r ModuleReference) IsBare() bool {
	return r.Path != "" && !strings.Contains(r.Path, ".")
}

// Child returns the reference to name inside r, keeping the relative level.
func (r ModuleReference) Child(name string) ModuleReference {
	if r.Path == "" {
		return ModuleReference{Path: name, Level: r.Level}
	}
	return ModuleReference{Path: r.Path + "." + name, Level: r.Level}
}

// WithoutWildcard strips the wildcard marker.
func (r ModuleReference) WithoutWildcard() ModuleReference {
	r.Wildcard = false
	return r
}

// References returns every module reference the statement may load. For
// `from m import x, y` that is m, m.x and m.y since x and y may themselves be
// submodules; for `from m import *` it is m and the wildcard form m.*.
func (s ImportStatement) References() []ModuleReference {
	if s.Plain {
		return []ModuleReference{s.Module}
	}
	if s.Module.Wildcard {
		return []ModuleReference{s.Module.WithoutWildcard(), s.Module}
	}
	refs := make([]ModuleReference, 0, 1+len(s.Names))
	refs = append(refs, s.Module)
	for _, n := range s.Names {
		refs = append(refs, s.Module.Child(n.Name))
	}
	return refs
}

// ImportText returns the statement's original source text.
func (f *SourceFile) ImportText(s ImportStatement) string {
	return string(f.Source[s.Span.Start:s.Span.End])
}
