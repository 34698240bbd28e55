// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/addonkit/addonkit/internal/testutil"
	"github.com/addonkit/addonkit/pkg/pysrc"
	"github.com/addonkit/addonkit/pkg/resolve"
)

const mainSource = `import bpy
from addons.demo.config import NAME  # keep comment
from common.i18n import (
    translate,
    load as load_dict,
)
import common.io.files as files, os
import common.io.files


def register():
    from common.i18n import *
`

var projectFiles = map[string]string{
	"addons/__init__.py":             "",
	"addons/demo/__init__.py":        "from addons.demo.config import NAME\nfrom .panels import main\n",
	"addons/demo/config.py":          "NAME = 'demo'\n",
	"addons/demo/panels/__init__.py": "",
	"addons/demo/panels/main.py":     mainSource,
	"common/__init__.py":             "",
	"common/i18n/__init__.py":        "def translate(): pass\ndef load(): pass\n",
	"common/io/files.py":             "",
}

type fixture struct {
	root    string
	bundle  string
	origins map[string]string
	r       *resolve.Resolver
}

// newFixture copies the project into dest/demo the way a release lays it
// out: every file at its project-relative path plus the addon's init at the
// bundle root.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "project")
	bundle := filepath.Join(t.TempDir(), "demo")
	testutil.WriteTree(t, root, projectFiles)

	origins := make(map[string]string)
	for rel, content := range projectFiles {
		dst := filepath.Join(bundle, filepath.FromSlash(rel))
		testutil.MustWriteFile(t, dst, content)
		origins[dst] = filepath.Join(root, filepath.FromSlash(rel))
	}
	rootInit := filepath.Join(bundle, "__init__.py")
	testutil.MustWriteFile(t, rootInit, projectFiles["addons/demo/__init__.py"])
	origins[rootInit] = filepath.Join(root, "addons", "demo", "__init__.py")

	r, err := resolve.New(root)
	if err != nil {
		t.Fatalf("resolve.New() error: %v", err)
	}
	return &fixture{root: root, bundle: bundle, origins: origins, r: r}
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	return testutil.MustReadFile(t, filepath.Join(f.bundle, filepath.FromSlash(rel)))
}

func TestBundle_RelativeMode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	report, err := Bundle(Options{Resolver: f.r, BundleDir: f.bundle, Origins: f.origins, Relative: true})
	if err != nil {
		t.Fatalf("Bundle() error: %v", err)
	}

	wantMain := `import bpy
from ..config import NAME  # keep comment
from ....common.i18n import (
    translate,
    load as load_dict,
)
from ....common.io import files as files; import os
import common.io.files


def register():
    from ....common.i18n import *
`
	if got := f.read(t, "addons/demo/panels/main.py"); got != wantMain {
		t.Errorf("main.py =\n%s\nwant\n%s", got, wantMain)
	}
	if got, want := f.read(t, "__init__.py"), "from .addons.demo.config import NAME\nfrom .addons.demo.panels import main\n"; got != want {
		t.Errorf("bundle __init__.py = %q, want %q", got, want)
	}
	if got, want := f.read(t, "addons/demo/__init__.py"), "from .config import NAME\nfrom .panels import main\n"; got != want {
		t.Errorf("addon __init__.py = %q, want %q", got, want)
	}

	if len(report.Warnings) != 1 || report.Warnings[0].Line != 8 {
		t.Errorf("expected one warning for the unaliased import on line 8, got %v", report.Warnings)
	}
	if slices.Contains(report.Changed, filepath.Join(f.bundle, "addons", "demo", "config.py")) {
		t.Error("unchanged files must not be reported as changed")
	}
}

func TestBundle_NamespaceMode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	report, err := Bundle(Options{Resolver: f.r, BundleDir: f.bundle, Origins: f.origins})
	if err != nil {
		t.Fatalf("Bundle() error: %v", err)
	}

	got := f.read(t, "addons/demo/panels/main.py")
	for _, want := range []string{
		"from demo.addons.demo.config import NAME  # keep comment\n",
		"from demo.common.i18n import (\n    translate,\n",
		"import demo.common.io.files as files, os\n",
		"\nimport common.io.files\n",
		"    from demo.common.i18n import *\n",
		"import bpy\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("main.py is missing %q:\n%s", want, got)
		}
	}
	if got, want := f.read(t, "__init__.py"), "from demo.addons.demo.config import NAME\nfrom .addons.demo.panels import main\n"; got != want {
		t.Errorf("bundle __init__.py = %q, want %q", got, want)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", report.Warnings)
	}
}

func TestBundle_RoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mainPath := filepath.Join(f.bundle, "addons", "demo", "panels", "main.py")
	origin := f.origins[mainPath]

	original, err := pysrc.ParseFile(origin)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	targets := map[string]bool{}
	for _, imp := range original.Imports {
		for _, ref := range imp.References() {
			if files := f.r.Resolve(ref, origin); len(files) > 0 {
				targets[files[len(files)-1]] = true
			}
		}
	}

	if _, err := Bundle(Options{Resolver: f.r, BundleDir: f.bundle, Origins: f.origins, Relative: true}); err != nil {
		t.Fatalf("Bundle() error: %v", err)
	}

	inBundle, err := resolve.New(f.bundle)
	if err != nil {
		t.Fatalf("resolve.New() error: %v", err)
	}
	rewritten, err := pysrc.ParseFile(mainPath)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	var checked int
	for _, imp := range rewritten.Imports {
		if !imp.Module.IsRelative() {
			continue
		}
		var resolved bool
		for _, ref := range imp.References() {
			files := inBundle.Resolve(ref, mainPath)
			if len(files) == 0 {
				continue
			}
			resolved = true
			if back := f.origins[files[len(files)-1]]; !targets[back] {
				t.Errorf("%q resolves to %s, which the original import did not target", imp.Line, back)
			}
		}
		if !resolved {
			t.Errorf("rewritten import %q does not resolve in the bundle", imp.Line)
		}
		checked++
	}
	if checked != 4 {
		t.Errorf("expected 4 relative imports after rewriting, got %d", checked)
	}
}

func TestRelativeModule(t *testing.T) {
	t.Parallel()
	base := filepath.FromSlash("/b/addons/demo/panels")
	tests := []struct {
		target string
		want   string
	}{
		{"/b/addons/demo/panels", "."},
		{"/b/addons/demo/panels/main", ".main"},
		{"/b/addons/demo/config", "..config"},
		{"/b/common/i18n", "....common.i18n"},
		{"/b/addons", "..."},
	}
	for _, tt := range tests {
		got, ok := relativeModule(base, filepath.FromSlash(tt.target))
		if !ok || got != tt.want {
			t.Errorf("relativeModule(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
