// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"errors"
	"slices"
	"testing"
)

func mustParse(t *testing.T, src string) *SourceFile {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()
	f, err := p.Parse("/project/mod.py", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return f
}

func TestParse_PlainImports(t *testing.T) {
	t.Parallel()
	f := mustParse(t, "import os\nimport common.io.files as files, bpy\n")

	if len(f.Imports) != 3 {
		t.Fatalf("expected 3 imports, got %d: %+v", len(f.Imports), f.Imports)
	}
	got := f.Imports[1]
	if !got.Plain || got.Kind != ImportAbsolute {
		t.Errorf("expected plain absolute import, got %+v", got)
	}
	if got.Module.Path != "common.io.files" {
		t.Errorf("Module.Path = %q", got.Module.Path)
	}
	if got.Names[0].Alias != "files" {
		t.Errorf("alias = %q, want files", got.Names[0].Alias)
	}
	if got.Span != f.Imports[2].Span {
		t.Errorf("targets of one statement should share the statement span")
	}
	if string(f.Source[got.ModuleSpan.Start:got.ModuleSpan.End]) != "common.io.files" {
		t.Errorf("ModuleSpan covers %q", f.Source[got.ModuleSpan.Start:got.ModuleSpan.End])
	}
	if got.Row != 2 || got.Line != "import common.io.files as files, bpy" {
		t.Errorf("Row/Line = %d %q", got.Row, got.Line)
	}
}

func TestParse_FromImports(t *testing.T) {
	t.Parallel()
	src := `from addons.sample.config import __addon_name__
from ..operators.ops import (
    ExampleOperator,
    Other as Renamed,
)
from . import panels
from common.i18n import *
from __future__ import annotations
`
	f := mustParse(t, src)
	if len(f.Imports) != 4 {
		t.Fatalf("expected 4 imports, got %d", len(f.Imports))
	}

	abs := f.Imports[0]
	if abs.Kind != ImportAbsolute || abs.Module.Path != "addons.sample.config" {
		t.Errorf("unexpected absolute import %+v", abs)
	}

	rel := f.Imports[1]
	if rel.Kind != ImportRelative || rel.Module.Level != 2 || rel.Module.Path != "operators.ops" {
		t.Errorf("unexpected relative import %+v", rel.Module)
	}
	names := []string{rel.Names[0].Name, rel.Names[1].Name}
	if !slices.Equal(names, []string{"ExampleOperator", "Other"}) {
		t.Errorf("names = %v", names)
	}
	if rel.Names[1].Alias != "Renamed" {
		t.Errorf("alias = %q", rel.Names[1].Alias)
	}
	if rel.Row != 2 {
		t.Errorf("Row = %d, want 2", rel.Row)
	}

	dot := f.Imports[2]
	if dot.Module.Level != 1 || dot.Module.Path != "" {
		t.Errorf("unexpected `from . import` module %+v", dot.Module)
	}

	wild := f.Imports[3]
	if wild.Kind != ImportWildcard || !wild.Module.Wildcard || wild.Module.Path != "common.i18n" {
		t.Errorf("unexpected wildcard import %+v", wild)
	}
}

func TestParse_NestedImportsAreFound(t *testing.T) {
	t.Parallel()
	src := `def register():
    from addons.sample import helpers
    helpers.run()

try:
    import optional_dep
except ImportError:
    pass
`
	f := mustParse(t, src)
	var paths []string
	for _, imp := range f.Imports {
		paths = append(paths, imp.Module.Path)
	}
	if !slices.Equal(paths, []string{"addons.sample", "optional_dep"}) {
		t.Errorf("imports = %v", paths)
	}
	if f.Imports[0].Line != "    from addons.sample import helpers" {
		t.Errorf("Line should keep indentation, got %q", f.Imports[0].Line)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser() error: %v", err)
	}
	defer p.Close()

	tests := []struct {
		name     string
		src      string
		wantLine int // 0 skips the line check
	}{
		{"unclosed parameter list", "import os\ndef broken(:\n    pass\n", 0},
		{"missing colon", "def f()\n    pass\n", 0},
		{"body not indented", "def f():\nreturn 1\n", 0},
		{"unexpected indent", "x = 1\n    y = 2\n", 2},
		{"python 2 print", "import os\nprint 'x'\n", 2},
		{"python 2 exec", "exec 'x = 1'\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse("/project/broken.py", []byte(tt.src))
			if err == nil {
				t.Fatal("expected parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if perr.Path != "/project/broken.py" {
				t.Errorf("Path = %q", perr.Path)
			}
			if tt.wantLine != 0 && perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
			if !errors.Is(err, ErrInvalidSyntax) {
				t.Error("ParseError should wrap ErrInvalidSyntax")
			}
		})
	}
}

func TestParse_ValidLayouts(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"import os; import sys\n",
		"x = 1\n    # indented comment\ny = 2\n",
		"def f():\n    # only a comment first\n    return 1\n",
		"class A: pass\nif True: x = (1,\n    2)\n",
		"print('x')\n",
	} {
		mustParse(t, src)
	}
}

func TestStatementReferences(t *testing.T) {
	t.Parallel()
	f := mustParse(t, "from pkg import a, b\nfrom . import c\nfrom pkg import *\nimport x.y\n")

	tests := []struct {
		idx  int
		want []string
	}{
		{0, []string{"pkg", "pkg.a", "pkg.b"}},
		{1, []string{".", ".c"}},
		{2, []string{"pkg", "pkg.*"}},
		{3, []string{"x.y"}},
	}
	for _, tt := range tests {
		var got []string
		for _, r := range f.Imports[tt.idx].References() {
			got = append(got, r.String())
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("import %d references = %v, want %v", tt.idx, got, tt.want)
		}
	}
}

func TestParseModuleReference(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want ModuleReference
	}{
		{"os", ModuleReference{Path: "os"}},
		{"a.b.c", ModuleReference{Path: "a.b.c"}},
		{"..config", ModuleReference{Path: "config", Level: 2}},
		{".", ModuleReference{Level: 1}},
		{"common.*", ModuleReference{Path: "common", Wildcard: true}},
	}
	for _, tt := range tests {
		got := ParseModuleReference(tt.in)
		if got != tt.want {
			t.Errorf("ParseModuleReference(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
