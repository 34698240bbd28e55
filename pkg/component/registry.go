// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"fmt"
	"slices"
)

// Registry is the explicit set of component classes, modules and extensions
// an addon provides. Insertion order is the discovery order used to break
// scheduling ties.
type Registry struct {
	classes    []Class
	byID       map[string]int
	modules    []Module
	extensions []Extension
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// Add registers a class. IDs must be unique and non-empty.
func (r *Registry) Add(c Class) error {
	if c.ID == "" {
		return errors.New("component class has an empty ID")
	}
	if _, dup := r.byID[c.ID]; dup {
		return fmt.Errorf("component class %q added twice", c.ID)
	}
	r.byID[c.ID] = len(r.classes)
	r.classes = append(r.classes, c)
	return nil
}

// MustAdd is Add for static registration tables; it panics on error.
func (r *Registry) MustAdd(classes ...Class) *Registry {
	for _, c := range classes {
		if err := r.Add(c); err != nil {
			panic(err)
		}
	}
	return r
}

// AddModule registers a module whose hooks run during Register/Unregister.
func (r *Registry) AddModule(m Module) {
	r.modules = append(r.modules, m)
}

// AddExtension registers a UI extension.
func (r *Registry) AddExtension(e Extension) error {
	if e.Target == "" {
		return fmt.Errorf("extension %q has no target", e.ID)
	}
	if err := e.Mode.Validate(); err != nil {
		return fmt.Errorf("extension %q: %w", e.ID, err)
	}
	r.extensions = append(r.extensions, e)
	return nil
}

// Lookup returns the class with the given ID.
func (r *Registry) Lookup(id string) (Class, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Class{}, false
	}
	return r.classes[i], true
}

// Classes returns the classes in discovery order.
func (r *Registry) Classes() []Class { return slices.Clone(r.classes) }

// Modules returns the registered modules in insertion order.
func (r *Registry) Modules() []Module { return slices.Clone(r.modules) }

// Extensions returns the registered extensions in insertion order.
func (r *Registry) Extensions() []Extension { return slices.Clone(r.extensions) }

// Len returns the number of classes.
func (r *Registry) Len() int { return len(r.classes) }
