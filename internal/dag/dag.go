// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for topological sorting
// and cycle detection. It orders component registration: nodes become ready in
// levels, and each level is ordered by an optional priority before it is
// emitted.
package dag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Nodes lists every node that could not be scheduled, in insertion
		// order. It includes the cycle members and anything blocked behind them.
		Nodes []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. Edges represent "must run before" relationships:
	// an edge from A to B means A must be emitted before B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors (nodes that depend on it).
		adjacency map[string][]string
		// edges deduplicates adjacency entries.
		edges map[[2]string]bool
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
		// priority holds declared priorities; absent nodes sort last.
		priority map[string]int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among: %s", strings.Join(e.Nodes, ", "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		edges:     make(map[[2]string]bool),
		nodeSet:   make(map[string]bool),
		priority:  make(map[string]int),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must be emitted before "to".
// Both nodes are implicitly added if they don't exist. Repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	key := [2]string{from, to}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.adjacency[from] = append(g.adjacency[from], to)
}

// SetPriority declares a priority for name, adding the node if needed. Among
// nodes that become ready together, lower priorities come first.
func (g *Graph) SetPriority(name string, priority int) {
	g.AddNode(name)
	g.priority[name] = priority
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns a valid order using a level-by-level variant of
// Kahn's algorithm. Each round takes every node whose predecessors have all
// been emitted, orders that set by ascending priority (nodes without one
// last), keeping insertion order among equals, and appends it.
// Returns CycleError naming every unscheduled node if the graph has a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	// Compute in-degrees.
	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	remaining := slices.Clone(g.nodes)
	result := make([]string, 0, len(g.nodes))
	for len(remaining) > 0 {
		var ready, blocked []string
		for _, node := range remaining {
			if inDegree[node] == 0 {
				ready = append(ready, node)
			} else {
				blocked = append(blocked, node)
			}
		}
		if len(ready) == 0 {
			return nil, &CycleError{Nodes: blocked}
		}

		slices.SortStableFunc(ready, g.comparePriority)
		result = append(result, ready...)
		for _, node := range ready {
			for _, neighbor := range g.adjacency[node] {
				inDegree[neighbor]--
			}
		}
		remaining = blocked
	}

	return result, nil
}

func (g *Graph) comparePriority(a, b string) int {
	pa, okA := g.priority[a]
	pb, okB := g.priority[b]
	switch {
	case okA && okB:
		return cmp.Compare(pa, pb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}
