// SPDX-License-Identifier: MPL-2.0

package component

import (
	"fmt"
	"slices"
)

const (
	// EdgeProperty means a property slot holds the dependency class.
	EdgeProperty EdgeKind = "property"
	// EdgeInheritance means the dependency is an ancestor class.
	EdgeInheritance EdgeKind = "inheritance"
	// EdgeParent means the dependency is the declared parent.
	EdgeParent EdgeKind = "parent"
)

type (
	// EdgeKind names the reason one class depends on another.
	EdgeKind string

	// Dependency is one outgoing edge of the graph.
	Dependency struct {
		On   string
		Kind EdgeKind
	}

	// Warning is a recoverable problem found while building the graph or
	// registering with the host.
	Warning struct {
		Subject string
		Message string
	}

	// Graph maps each class to the classes it depends on.
	Graph struct {
		order []string
		deps  map[string][]Dependency
	}
)

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Subject, w.Message)
}

// BuildGraph derives the dependency graph of the registry's classes. An
// unresolved declared parent produces a warning and no edge.
func BuildGraph(reg *Registry) (*Graph, []Warning) {
	classes := reg.Classes()
	byIDName := make(map[string]string, len(classes))
	for _, c := range classes {
		if c.IDName != "" {
			if _, taken := byIDName[c.IDName]; !taken {
				byIDName[c.IDName] = c.ID
			}
		}
	}

	g := &Graph{deps: make(map[string][]Dependency, len(classes))}
	var warnings []Warning
	for _, c := range classes {
		g.order = append(g.order, c.ID)
		add := func(on string, kind EdgeKind) {
			if on == c.ID {
				return
			}
			for _, d := range g.deps[c.ID] {
				if d.On == on {
					return
				}
			}
			g.deps[c.ID] = append(g.deps[c.ID], Dependency{On: on, Kind: kind})
		}

		for _, p := range c.Properties {
			if _, ok := reg.Lookup(p.Type); p.Type != "" && ok {
				add(p.Type, EdgeProperty)
			}
		}
		for _, a := range ancestors(reg, c) {
			add(a, EdgeInheritance)
		}
		if c.ParentID != "" {
			if parent, ok := byIDName[c.ParentID]; ok {
				add(parent, EdgeParent)
			} else {
				warnings = append(warnings, Warning{
					Subject: c.ID,
					Message: fmt.Sprintf("parent %q is not a known class; edge omitted", c.ParentID),
				})
			}
		}
	}
	return g, warnings
}

// ancestors returns every registered class on c's base chain, nearest first.
func ancestors(reg *Registry, c Class) []string {
	var out []string
	seen := map[string]bool{c.ID: true}
	queue := slices.Clone(c.Bases)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		base, ok := reg.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, id)
		queue = append(queue, base.Bases...)
	}
	return out
}

// Classes returns the class IDs in discovery order.
func (g *Graph) Classes() []string { return slices.Clone(g.order) }

// DependenciesOf returns the outgoing edges of id.
func (g *Graph) DependenciesOf(id string) []Dependency {
	return slices.Clone(g.deps[id])
}
