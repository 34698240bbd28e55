// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/addonkit/addonkit/internal/dag"
)

type (
	// CycleError reports classes whose dependencies form a cycle. No partial
	// order is produced when it is returned.
	CycleError struct {
		Classes []string
	}

	// Schedule is a registration order. The unregistration order is always
	// its exact reverse.
	Schedule struct {
		order []string
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("component dependency cycle among: %s", strings.Join(e.Classes, ", "))
}

// Schedule orders the graph's classes so that every class follows the classes
// it depends on. Classes that become ready together are ordered by ascending
// priority, classes without one last, ties kept in discovery order.
func (g *Graph) Schedule(reg *Registry) (*Schedule, error) {
	d := dag.New()
	for _, id := range g.order {
		d.AddNode(id)
		if c, ok := reg.Lookup(id); ok && c.Priority != nil {
			d.SetPriority(id, *c.Priority)
		}
	}
	for _, id := range g.order {
		for _, dep := range g.deps[id] {
			d.AddEdge(dep.On, id)
		}
	}

	order, err := d.TopologicalSort()
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			return nil, &CycleError{Classes: cycle.Nodes}
		}
		return nil, err
	}
	return &Schedule{order: order}, nil
}

// Registration returns the registration order.
func (s *Schedule) Registration() []string { return slices.Clone(s.order) }

// Unregistration returns the reverse of the registration order.
func (s *Schedule) Unregistration() []string {
	out := slices.Clone(s.order)
	slices.Reverse(out)
	return out
}

// Len returns the number of scheduled classes.
func (s *Schedule) Len() int { return len(s.order) }
