// SPDX-License-Identifier: MPL-2.0

// Package scan discovers component classes statically from parsed Python
// sources, without running the host application.
package scan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/addonkit/addonkit/pkg/component"
	"github.com/addonkit/addonkit/pkg/pysrc"
	"github.com/addonkit/addonkit/pkg/resolve"
)

const (
	hostTypesModule = "bpy.types"
	extensionBase   = "ExpandableUi"
	priorityDecor   = "reg_order"
)

// RegisterBaseTypes are the host types whose subclasses are registered.
var RegisterBaseTypes = []string{
	"Panel", "Operator", "PropertyGroup",
	"AddonPreferences", "Header", "Menu",
	"Node", "NodeSocket", "NodeTree",
	"UIList", "RenderEngine",
	"Gizmo", "GizmoGroup",
}

// referenceProperties are the property constructors whose `type=` argument
// names another class.
var referenceProperties = []string{"PointerProperty", "CollectionProperty"}

type (
	// Result is what a scan discovered.
	Result struct {
		Registry *component.Registry
		Warnings []component.Warning
	}

	// declared is one project class with its bases qualified.
	declared struct {
		id    string
		decl  pysrc.ClassDecl
		bases []string
		scope *scope
	}

	// scope maps names visible in one file to qualified identifiers.
	scope struct {
		module   string
		bindings map[string]string
	}

	scanner struct {
		resolver *resolve.Resolver
		classes  map[string]*declared
		ordered  []*declared
		byFile   map[string][]*declared
		kinds    map[string]classKind
		warnings []component.Warning
	}

	classKind int
)

const (
	kindUnknown classKind = iota
	kindVisiting
	kindPlain
	kindComponent
	kindExtension
)

// Scan walks every source in the closure, in path order, and returns the
// component classes and UI extensions it declares.
func Scan(r *resolve.Resolver, c *resolve.Closure) (*Result, error) {
	s := &scanner{
		resolver: r,
		classes:  make(map[string]*declared),
		byFile:   make(map[string][]*declared),
		kinds:    make(map[string]classKind),
	}

	files := c.Files()
	for _, path := range files {
		src := c.Sources[path]
		module := resolve.ModuleName(r.Root(), path)
		for _, decl := range src.Classes {
			id := qualify(module, decl.Name)
			d := &declared{id: id, decl: decl}
			if _, dup := s.classes[id]; !dup {
				s.classes[id] = d
				s.ordered = append(s.ordered, d)
			}
			s.byFile[path] = append(s.byFile[path], d)
		}
	}
	for _, path := range files {
		sc := s.scopeOf(c.Sources[path])
		for _, d := range s.byFile[path] {
			d.scope = sc
			for _, b := range d.decl.Bases {
				d.bases = append(d.bases, sc.qualify(b))
			}
		}
	}

	reg := component.NewRegistry()
	for _, d := range s.ordered {
		switch s.kindOf(d.id) {
		case kindComponent:
			if err := reg.Add(s.componentOf(d)); err != nil {
				return nil, err
			}
		case kindExtension:
			ext, ok := s.extensionOf(d)
			if !ok {
				continue
			}
			if err := reg.AddExtension(ext); err != nil {
				s.warn(d.id, err.Error())
			}
		}
	}
	return &Result{Registry: reg, Warnings: s.warnings}, nil
}

// scopeOf builds the name bindings of one file: imported names first, then
// the file's own classes.
func (s *scanner) scopeOf(src *pysrc.SourceFile) *scope {
	sc := &scope{
		module:   resolve.ModuleName(s.resolver.Root(), src.Path),
		bindings: make(map[string]string),
	}
	for _, imp := range src.Imports {
		switch {
		case imp.Plain:
			if imp.Names[0].Alias != "" {
				sc.bindings[imp.Names[0].Alias] = s.moduleID(imp.Module, src.Path)
			}
		case imp.Module.Wildcard:
			files := s.resolver.Resolve(imp.Module.WithoutWildcard(), src.Path)
			if len(files) == 0 {
				continue
			}
			for _, d := range s.byFile[files[len(files)-1]] {
				sc.bindings[d.decl.Name] = d.id
			}
		default:
			parent := s.moduleID(imp.Module, src.Path)
			for _, n := range imp.Names {
				name := n.Name
				if n.Alias != "" {
					name = n.Alias
				}
				if sub := s.resolver.Resolve(imp.Module.Child(n.Name), src.Path); len(sub) > 0 {
					sc.bindings[name] = resolve.ModuleName(s.resolver.Root(), sub[len(sub)-1])
					continue
				}
				sc.bindings[name] = qualify(parent, n.Name)
			}
		}
	}
	for _, d := range s.byFile[src.Path] {
		sc.bindings[d.decl.Name] = d.id
	}
	return sc
}

// moduleID returns the project module name ref resolves to, or its dotted
// path when it is external.
func (s *scanner) moduleID(ref pysrc.ModuleReference, from string) string {
	if files := s.resolver.Resolve(ref, from); len(files) > 0 {
		return resolve.ModuleName(s.resolver.Root(), files[len(files)-1])
	}
	return ref.Path
}

func (sc *scope) qualify(expr string) string {
	head, rest, dotted := strings.Cut(expr, ".")
	target, ok := sc.bindings[head]
	if !ok {
		return expr
	}
	if dotted {
		return qualify(target, rest)
	}
	return target
}

// kindOf classifies a qualified class name by walking its ancestors.
func (s *scanner) kindOf(id string) classKind {
	if k, ok := s.kinds[id]; ok {
		if k == kindVisiting {
			return kindPlain
		}
		return k
	}
	if isRegisterBase(id) {
		return kindComponent
	}
	d, ok := s.classes[id]
	if !ok {
		if lastSegment(id) == extensionBase {
			return kindExtension
		}
		return kindPlain
	}
	s.kinds[id] = kindVisiting
	kind := kindPlain
	for _, b := range d.bases {
		switch k := s.kindOf(b); {
		case k == kindComponent:
			kind = kindComponent
		case k == kindExtension && kind == kindPlain:
			kind = kindExtension
		}
	}
	if d.decl.Name == extensionBase && kind == kindPlain {
		kind = kindExtension
	}
	s.kinds[id] = kind
	return kind
}

func (s *scanner) componentOf(d *declared) component.Class {
	c := component.Class{ID: d.id, Bases: slices.Clone(d.bases)}
	c.IDName, _ = d.decl.Attr("bl_idname")
	c.ParentID, _ = d.decl.Attr("bl_parent_id")
	for _, p := range d.decl.Properties {
		prop := component.Property{Name: p.Name}
		if p.TypeRef != "" && slices.Contains(referenceProperties, lastSegment(p.Call)) {
			prop.Type = d.scope.qualify(p.TypeRef)
		}
		c.Properties = append(c.Properties, prop)
	}
	if dec, ok := d.decl.Decorator(priorityDecor); ok {
		if len(dec.Args) == 1 {
			if n, err := strconv.Atoi(dec.Args[0]); err == nil {
				c.Priority = component.Priority(n)
			} else {
				s.warn(d.id, fmt.Sprintf("@%s argument %q is not an integer; priority ignored", priorityDecor, dec.Args[0]))
			}
		} else {
			s.warn(d.id, fmt.Sprintf("@%s expects one argument; priority ignored", priorityDecor))
		}
	}
	return c
}

// extensionOf reads the target and mode of an extension class. The abstract
// base itself has no target and is skipped.
func (s *scanner) extensionOf(d *declared) (component.Extension, bool) {
	target, ok := d.decl.Attr("target_id")
	if !ok {
		if d.decl.Name != extensionBase {
			s.warn(d.id, "extension declares no target_id; skipped")
		}
		return component.Extension{}, false
	}
	raw, ok := d.decl.Attr("expand_mode")
	if !ok {
		raw, _ = d.decl.Attr("mode")
	}
	mode, err := component.ParseExpandMode(raw)
	if err != nil {
		s.warn(d.id, err.Error())
		return component.Extension{}, false
	}
	return component.Extension{ID: d.id, Target: target, Mode: mode}, true
}

func (s *scanner) warn(subject, msg string) {
	s.warnings = append(s.warnings, component.Warning{Subject: subject, Message: msg})
}

func isRegisterBase(id string) bool {
	name, ok := strings.CutPrefix(id, hostTypesModule+".")
	return ok && slices.Contains(RegisterBaseTypes, name)
}

func qualify(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
