// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/addonkit/addonkit/internal/testutil"
	"github.com/addonkit/addonkit/internal/workspace"
	"github.com/addonkit/addonkit/pkg/component"
	"github.com/addonkit/addonkit/pkg/pysrc"
	"github.com/addonkit/addonkit/pkg/resolve"
)

const (
	sharedModules = 40
	addonPanels   = 20
)

// panelSource is a representative addon module: absolute and relative
// imports, decorated component classes and property references.
const panelSource = `import bpy
from bpy.props import PointerProperty

from common.lib%[1]d import helper
from ..props import Settings
from ....common.types.framework import reg_order


@reg_order(%[1]d)
class Panel%[1]d(bpy.types.Panel):
    bl_idname = "DEMO_PT_panel%[1]d"
    bl_space_type = "VIEW_3D"
    settings: PointerProperty(type=Settings)

    def draw(self, context):
        helper(self.layout)
`

// newWorkspace writes a workspace with one addon importing a chain of
// shared modules.
func newWorkspace(b *testing.B) string {
	b.Helper()
	root := filepath.Join(b.TempDir(), "project")
	files := map[string]string{
		"addons/__init__.py":             "",
		"addons/demo/__init__.py":        "from .panels import *\n",
		"addons/demo/props.py":           "import bpy\n\n\nclass Settings(bpy.types.PropertyGroup):\n    pass\n",
		"addons/demo/panels/__init__.py": "",
		"common/__init__.py":             "",
		"common/types/__init__.py":       "",
		"common/types/framework.py":      "def reg_order(n):\n    return lambda cls: cls\n",
	}
	for i := range sharedModules {
		next := ""
		if i+1 < sharedModules {
			next = fmt.Sprintf("from common.lib%d import helper as _next\n", i+1)
		}
		files[fmt.Sprintf("common/lib%d.py", i)] = next + "import os\n\n\ndef helper(layout):\n    return os.sep\n"
	}
	for i := range addonPanels {
		files[fmt.Sprintf("addons/demo/panels/panel%d.py", i)] = fmt.Sprintf(panelSource, i)
	}
	testutil.WriteTree(b, root, files)
	return root
}

func BenchmarkParseFile(b *testing.B) {
	root := newWorkspace(b)
	path := filepath.Join(root, "addons", "demo", "panels", "panel0.py")
	parser, err := pysrc.NewParser()
	if err != nil {
		b.Fatal(err)
	}
	defer parser.Close()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := parser.ParseFile(path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClosure(b *testing.B) {
	root := newWorkspace(b)
	entry := filepath.Join(root, "addons", "demo", "panels", "panel0.py")

	b.ReportAllocs()
	for b.Loop() {
		r, err := resolve.New(root)
		if err != nil {
			b.Fatal(err)
		}
		c, err := r.Closure(entry)
		if err != nil {
			b.Fatal(err)
		}
		if c.Len() < sharedModules {
			b.Fatalf("closure has %d files", c.Len())
		}
	}
}

func BenchmarkRelease(b *testing.B) {
	root := newWorkspace(b)
	ws, err := workspace.Open(root)
	if err != nil {
		b.Fatal(err)
	}
	dest := filepath.Join(b.TempDir(), "release")

	b.ReportAllocs()
	for b.Loop() {
		if _, err := ws.Release(context.Background(), "demo", workspace.ReleaseOptions{DestinationDir: dest, Extension: false}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSchedule(b *testing.B) {
	reg := component.NewRegistry()
	for i := range 200 {
		c := component.Class{
			ID:     fmt.Sprintf("addons.demo.panels.Panel%d", i),
			Bases:  []string{"bpy.types.Panel"},
			IDName: fmt.Sprintf("DEMO_PT_%d", i),
		}
		if i > 0 {
			c.ParentID = fmt.Sprintf("DEMO_PT_%d", i/2)
		}
		if i%3 == 0 {
			c.Priority = component.Priority(i % 7)
		}
		reg.MustAdd(c)
	}

	b.ReportAllocs()
	for b.Loop() {
		l := component.NewLifecycle(nil)
		if err := l.Init(reg); err != nil {
			b.Fatal(err)
		}
	}
}
