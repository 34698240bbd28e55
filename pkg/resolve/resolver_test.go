// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/addonkit/addonkit/internal/testutil"
	"github.com/addonkit/addonkit/pkg/pysrc"
)

// newProject lays out a small multi-addon workspace:
//
//	addons/__init__.py
//	addons/demo/__init__.py
//	addons/demo/config.py
//	addons/demo/panels/__init__.py
//	addons/demo/panels/main.py
//	common/__init__.py
//	common/i18n.py
//	common/i18n/__init__.py   (package beats flat file)
//	common/io/files.py        (common/io has no marker)
//	lib/util.py
func newProject(t *testing.T) (string, *Resolver) {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"addons/__init__.py":             "",
		"addons/demo/__init__.py":        "",
		"addons/demo/config.py":          "",
		"addons/demo/panels/__init__.py": "",
		"addons/demo/panels/main.py":     "",
		"common/__init__.py":             "",
		"common/i18n.py":                 "",
		"common/i18n/__init__.py":        "",
		"common/io/files.py":             "",
		"lib/util.py":                    "",
	})
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return root, r
}

func TestResolve(t *testing.T) {
	t.Parallel()
	root, r := newProject(t)
	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }
	mainPy := p("addons/demo/panels/main.py")

	tests := []struct {
		name string
		ref  string
		from string
		want []string
	}{
		{
			name: "absolute module with package markers first",
			ref:  "addons.demo.config",
			from: mainPy,
			want: []string{p("addons/__init__.py"), p("addons/demo/__init__.py"), p("addons/demo/config.py")},
		},
		{
			name: "absolute package resolves to its marker",
			ref:  "addons.demo.panels",
			from: mainPy,
			want: []string{p("addons/__init__.py"), p("addons/demo/__init__.py"), p("addons/demo/panels/__init__.py")},
		},
		{
			name: "package beats same-named module",
			ref:  "common.i18n",
			from: mainPy,
			want: []string{p("common/__init__.py"), p("common/i18n/__init__.py")},
		},
		{
			name: "directory without marker is skipped in the prefix",
			ref:  "common.io.files",
			from: mainPy,
			want: []string{p("common/__init__.py"), p("common/io/files.py")},
		},
		{
			name: "bare external name",
			ref:  "bpy",
			from: mainPy,
			want: nil,
		},
		{
			name: "dotted external name",
			ref:  "bpy.props",
			from: mainPy,
			want: nil,
		},
		{
			name: "dotted name found by upward search",
			ref:  "panels.main",
			from: p("addons/demo/config.py"),
			want: []string{p("addons/demo/panels/__init__.py"), p("addons/demo/panels/main.py")},
		},
		{
			name: "bare directory without marker is external",
			ref:  "lib",
			from: mainPy,
			want: nil,
		},
		{
			name: "relative depth one",
			ref:  ".main",
			from: p("addons/demo/panels/__init__.py"),
			want: []string{p("addons/demo/panels/main.py")},
		},
		{
			name: "relative depth two",
			ref:  "..config",
			from: mainPy,
			want: []string{p("addons/demo/config.py")},
		},
		{
			name: "relative empty tail is the anchor package",
			ref:  "..",
			from: mainPy,
			want: []string{p("addons/demo/__init__.py")},
		},
		{
			name: "relative does not search upward",
			ref:  ".config",
			from: mainPy,
			want: nil,
		},
		{
			name: "relative above the root",
			ref:  ".....x",
			from: mainPy,
			want: nil,
		},
		{
			name: "wildcard",
			ref:  "common.i18n.*",
			from: mainPy,
			want: []string{p("common/__init__.py"), p("common/i18n/__init__.py")},
		},
		{
			name: "bare wildcard probes ancestors",
			ref:  "panels.*",
			from: p("addons/demo/config.py"),
			want: []string{p("addons/demo/panels/__init__.py")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := r.Resolve(pysrc.ParseModuleReference(tt.ref), tt.from)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolve_BareLocalModule(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"numpy.py":    "",
		"addons/a.py": "",
	})
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	got := r.Resolve(pysrc.ParseModuleReference("numpy"), filepath.Join(root, "addons", "a.py"))
	want := []string{filepath.Join(root, "numpy.py")}
	if !slices.Equal(got, want) {
		t.Errorf("local module should shadow the external one: got %v, want %v", got, want)
	}
}

func TestContains(t *testing.T) {
	t.Parallel()
	root, r := newProject(t)

	tests := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "addons"), true},
		{filepath.Dir(root), false},
		{root + "_sibling", false},
		{filepath.Join(root, "..", filepath.Base(root), "lib"), true},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestModuleName(t *testing.T) {
	t.Parallel()
	root := filepath.FromSlash("/work/project")
	tests := []struct {
		rel  string
		want string
	}{
		{"addons/demo/__init__.py", "addons.demo"},
		{"addons/demo/panels/main.py", "addons.demo.panels.main"},
		{"top.py", "top"},
		{"__init__.py", ""},
		{"../elsewhere/x.py", ""},
	}
	for _, tt := range tests {
		path := filepath.Join(root, filepath.FromSlash(tt.rel))
		if got := ModuleName(root, path); got != tt.want {
			t.Errorf("ModuleName(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
