// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"slices"
	"testing"
)

func TestClassDecls(t *testing.T) {
	t.Parallel()
	src := `import bpy
from bpy.props import PointerProperty, IntProperty


class BasePanel(object):
    bl_space_type = "VIEW_3D"


@reg_order(0)
class ExamplePanel(BasePanel, bpy.types.Panel):
    bl_label = "Example"
    bl_idname = 'SCENE_PT_sample'
    bl_parent_id = "SCENE_PT_root"

    def draw(self, context):
        pass


class Settings(bpy.types.PropertyGroup, metaclass=Meta):
    number: IntProperty(name="Number", default=2)
    target: PointerProperty(type=Other, name="Target")
    order = -3
`
	f := mustParse(t, src)
	if len(f.Classes) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(f.Classes))
	}

	panel := f.Classes[1]
	if panel.Name != "ExamplePanel" {
		t.Errorf("Name = %q", panel.Name)
	}
	if !slices.Equal(panel.Bases, []string{"BasePanel", "bpy.types.Panel"}) {
		t.Errorf("Bases = %v", panel.Bases)
	}
	if v, _ := panel.Attr("bl_idname"); v != "SCENE_PT_sample" {
		t.Errorf("bl_idname = %q", v)
	}
	if v, _ := panel.Attr("bl_parent_id"); v != "SCENE_PT_root" {
		t.Errorf("bl_parent_id = %q", v)
	}
	d, ok := panel.Decorator("reg_order")
	if !ok || !slices.Equal(d.Args, []string{"0"}) {
		t.Errorf("reg_order decorator = %+v, %v", d, ok)
	}
	if panel.Row != 9 {
		t.Errorf("Row = %d, want 9 (decorator line)", panel.Row)
	}

	settings := f.Classes[2]
	if !slices.Equal(settings.Bases, []string{"bpy.types.PropertyGroup"}) {
		t.Errorf("keyword arguments must not be bases: %v", settings.Bases)
	}
	if len(settings.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %+v", settings.Properties)
	}
	if p := settings.Properties[1]; p.Call != "PointerProperty" || p.TypeRef != "Other" {
		t.Errorf("pointer property = %+v", p)
	}
	if p := settings.Properties[0]; p.TypeRef != "" {
		t.Errorf("IntProperty should have no type ref, got %q", p.TypeRef)
	}
	if v, _ := settings.Attr("order"); v != "-3" {
		t.Errorf("order = %q", v)
	}
}

func TestModuleDicts(t *testing.T) {
	t.Parallel()
	src := `bl_info = {
    "name": "Basic Add-on Sample",
    "blender": (3, 5, 0),
    "version": (0, 0, 1),
    "doc_url": some_call(),
}
other = 1
`
	f := mustParse(t, src)
	info, ok := f.Dicts["bl_info"]
	if !ok {
		t.Fatalf("bl_info not found in %v", f.Dicts)
	}
	if !slices.Equal(info["version"], []string{"0", "0", "1"}) {
		t.Errorf("version = %v", info["version"])
	}
	if !slices.Equal(info["name"], []string{"Basic Add-on Sample"}) {
		t.Errorf("name = %v", info["name"])
	}
	if _, ok := info["doc_url"]; ok {
		t.Error("non-literal values must be omitted")
	}
}
