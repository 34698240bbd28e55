// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/addonkit/addonkit/pkg/pysrc"
)

type (
	// Closure is the transitive file set reachable from a group of entry
	// files, together with the parsed sources of every member.
	Closure struct {
		Root    string
		Entries []string
		// Sources holds the parsed form of every file in the closure.
		Sources map[string]*pysrc.SourceFile
		// Edges maps each file to the project files its imports resolved to,
		// in first-seen order.
		Edges map[string][]string
	}

	// OutsideRootError is returned when an entry file is not under the
	// project root.
	OutsideRootError struct {
		Path string
		Root string
	}
)

func (e *OutsideRootError) Error() string {
	return fmt.Sprintf("entry file %s is outside project root %s", e.Path, e.Root)
}

// Files returns the closure members sorted lexically.
func (c *Closure) Files() []string {
	files := make([]string, 0, len(c.Sources))
	for f := range c.Sources {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// Has reports whether path is a member of the closure.
func (c *Closure) Has(path string) bool {
	_, ok := c.Sources[path]
	return ok
}

// Len returns the number of files in the closure.
func (c *Closure) Len() int { return len(c.Sources) }

// Closure computes every project file transitively imported by entries,
// entries included. Any file that fails to parse aborts the computation and
// no partial result is returned.
func (r *Resolver) Closure(entries ...string) (*Closure, error) {
	parser, err := pysrc.NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	c := &Closure{
		Root:    r.root,
		Sources: make(map[string]*pysrc.SourceFile),
		Edges:   make(map[string][]string),
	}

	pending := make([]string, 0, len(entries))
	for _, e := range entries {
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, fmt.Errorf("resolve: entry %q: %w", e, err)
		}
		if !r.Contains(abs) {
			return nil, &OutsideRootError{Path: abs, Root: r.root}
		}
		c.Entries = append(c.Entries, abs)
		pending = append(pending, abs)
	}

	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if c.Has(current) {
			continue
		}

		src, err := parser.ParseFile(current)
		if err != nil {
			return nil, err
		}
		c.Sources[current] = src

		seen := make(map[string]bool)
		for _, imp := range src.Imports {
			for _, ref := range imp.References() {
				for _, dep := range r.Resolve(ref, current) {
					if !seen[dep] {
						seen[dep] = true
						c.Edges[current] = append(c.Edges[current], dep)
					}
					if !c.Has(dep) {
						pending = append(pending, dep)
					}
				}
			}
		}
	}
	return c, nil
}
