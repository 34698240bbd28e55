// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/addonkit/addonkit/pkg/pysrc"
)

const (
	// PackageMarker is the file that turns a directory into a package.
	PackageMarker = "__init__.py"
	// SourceExt is the extension of a Python module file.
	SourceExt = ".py"

	defaultProbeCacheSize = 4096
)

const (
	probeMissing probeKind = iota
	probePackage
	probeModule
)

type (
	probeKind int

	// Resolver resolves module references against one project root. A
	// Resolver memoizes filesystem probes, so it must not outlive the pass it
	// was created for: files created after a probe are not seen.
	Resolver struct {
		root   string
		logger *log.Logger
		probes *lru.Cache[string, probeKind]
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver for the given project root.
func New(root string, opts ...Option) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve: project root %q: %w", root, err)
	}
	cache, err := lru.New[string, probeKind](defaultProbeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("resolve: probe cache: %w", err)
	}
	r := &Resolver{
		root:   filepath.Clean(abs),
		logger: log.New(io.Discard),
		probes: cache,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the absolute project root.
func (r *Resolver) Root() string { return r.root }

// Contains reports whether path lies at or below the project root.
func (r *Resolver) Contains(path string) bool {
	return within(path, r.root)
}

// Resolve maps ref, written in the file at from, to the files that importing
// it loads. Package markers of intermediate packages come first, the target
// last. An unresolved reference yields nil.
func (r *Resolver) Resolve(ref pysrc.ModuleReference, from string) []string {
	segments := ref.Segments()

	if ref.IsRelative() {
		anchor := filepath.Dir(from)
		for range ref.Level - 1 {
			anchor = filepath.Dir(anchor)
		}
		if !r.Contains(anchor) {
			return nil
		}
		return r.resolveAt(anchor, segments)
	}

	if len(segments) == 0 {
		return nil
	}
	if files := r.resolveAt(r.root, segments); files != nil {
		if ref.IsBare() && !ref.Wildcard {
			r.logger.Debug("bare import resolved to a project module", "module", ref.Path, "file", from)
		}
		return files
	}
	if ref.IsBare() && !ref.Wildcard {
		return nil
	}
	for dir := filepath.Dir(from); r.Contains(dir); dir = filepath.Dir(dir) {
		if files := r.resolveAt(dir, segments); files != nil {
			return files
		}
		if dir == r.root {
			break
		}
	}
	return nil
}

// resolveAt resolves the dotted segments anchored at dir. No segments means
// the package at dir itself.
func (r *Resolver) resolveAt(dir string, segments []string) []string {
	if len(segments) == 0 {
		if r.probe(dir) == probePackage {
			return []string{filepath.Join(dir, PackageMarker)}
		}
		return nil
	}

	target := filepath.Join(append([]string{dir}, segments...)...)
	var last string
	switch r.probe(target) {
	case probePackage:
		last = filepath.Join(target, PackageMarker)
	case probeModule:
		last = target + SourceExt
	default:
		return nil
	}

	var files []string
	cur := dir
	for _, seg := range segments[:len(segments)-1] {
		cur = filepath.Join(cur, seg)
		if r.probe(cur) == probePackage {
			files = append(files, filepath.Join(cur, PackageMarker))
		}
	}
	return append(files, last)
}

// probe classifies path as a package directory, a module (path + ".py"), or
// missing. A directory holding a marker wins over a same-named module file.
func (r *Resolver) probe(path string) probeKind {
	if kind, ok := r.probes.Get(path); ok {
		return kind
	}
	kind := probeMissing
	if isFile(filepath.Join(path, PackageMarker)) {
		kind = probePackage
	} else if isFile(path + SourceExt) {
		kind = probeModule
	}
	r.probes.Add(path, kind)
	return kind
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// within reports whether path equals base or is nested below it.
func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ModuleName returns the dotted module name of the file at path relative to
// root: `a/b/__init__.py` is `a.b` and `a/b/c.py` is `a.b.c`. It returns ""
// for paths outside root or the root package itself.
func ModuleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || !within(path, root) {
		return ""
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, "/"+PackageMarker)
	if rel == PackageMarker {
		return ""
	}
	rel = strings.TrimSuffix(rel, SourceExt)
	return strings.ReplaceAll(rel, "/", ".")
}
