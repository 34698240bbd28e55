// SPDX-License-Identifier: MPL-2.0

// Package rewrite adjusts the import statements of files copied into a
// relocated bundle so that they keep resolving to the same modules.
//
// Two passes run over every bundle file. The first (extension mode only)
// turns absolute imports of project modules into relative ones. The second
// prefixes the bundle namespace onto absolute imports whose leading segment
// is a top-level module of the bundle. Relative imports of files that moved
// to a different directory are re-anchored in both modes.
//
// Edits are computed from the syntax tree and applied to the module-path
// portion of each statement, so name lists, aliases, comments and layout are
// kept byte-for-byte.
package rewrite

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/addonkit/addonkit/pkg/pysrc"
	"github.com/addonkit/addonkit/pkg/resolve"
)

type (
	// Options configures a rewrite run.
	Options struct {
		// Resolver resolves references against the original project root.
		Resolver *resolve.Resolver
		// BundleDir is the root of the relocated copy.
		BundleDir string
		// Namespace is prepended in the prefixing pass. Defaults to the base
		// name of BundleDir.
		Namespace string
		// Origins maps each bundle file to the project file it was copied from.
		Origins map[string]string
		// Relative enables absolute-to-relative conversion.
		Relative bool
		Logger   *log.Logger
	}

	// Warning is an import that could not be rewritten.
	Warning struct {
		File      string
		Line      int
		Statement string
		Message   string
	}

	// Report lists what a run changed.
	Report struct {
		Changed  []string
		Warnings []Warning
	}

	edit struct {
		span pysrc.Span
		text string
	}

	run struct {
		opts     Options
		located  map[string]string
		toplevel map[string]bool
		report   *Report
	}
)

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", w.File, w.Line, w.Message, strings.TrimSpace(w.Statement))
}

// Bundle rewrites every Python file in opts.Origins in place. Only files
// whose content changes are written back.
func Bundle(opts Options) (*Report, error) {
	if opts.Resolver == nil {
		return nil, errors.New("rewrite: no resolver")
	}
	if opts.Namespace == "" {
		opts.Namespace = filepath.Base(opts.BundleDir)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	r := &run{
		opts:     opts,
		located:  make(map[string]string, len(opts.Origins)),
		toplevel: topLevelModules(opts.BundleDir, opts.Origins),
		report:   &Report{},
	}
	// A file copied more than once is located at the copy that kept its
	// project-relative path, else at the lexically first copy.
	for dst, src := range opts.Origins {
		prev, ok := r.located[src]
		if !ok || r.keepsPath(dst, src) || (!r.keepsPath(prev, src) && dst < prev) {
			r.located[src] = dst
		}
	}

	parser, err := pysrc.NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	files := make([]string, 0, len(opts.Origins))
	for dst := range opts.Origins {
		if strings.HasSuffix(dst, resolve.SourceExt) {
			files = append(files, dst)
		}
	}
	slices.Sort(files)

	for _, path := range files {
		src, err := parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		out := apply(src.Source, r.editsFor(src))
		if string(out) == string(src.Source) {
			continue
		}
		if err := writeKeepingMode(path, out); err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", path, err)
		}
		r.report.Changed = append(r.report.Changed, path)
		opts.Logger.Debug("rewrote imports", "file", path)
	}
	for _, w := range r.report.Warnings {
		opts.Logger.Warn(w.Message, "file", w.File, "line", w.Line)
	}
	return r.report, nil
}

func (r *run) editsFor(src *pysrc.SourceFile) []edit {
	var edits []edit
	origin := r.opts.Origins[src.Path]

	// Plain `import a, b` targets share one statement span.
	var plainGroup []pysrc.ImportStatement
	flush := func() {
		if len(plainGroup) > 0 {
			edits = append(edits, r.plainEdits(src, plainGroup, origin)...)
			plainGroup = nil
		}
	}
	for _, imp := range src.Imports {
		if imp.Plain {
			if len(plainGroup) > 0 && plainGroup[0].Span != imp.Span {
				flush()
			}
			plainGroup = append(plainGroup, imp)
			continue
		}
		flush()
		if e, ok := r.fromEdit(src, imp, origin); ok {
			edits = append(edits, e)
		}
	}
	flush()
	return edits
}

// fromEdit handles `from m import ...` statements.
func (r *run) fromEdit(src *pysrc.SourceFile, imp pysrc.ImportStatement, origin string) (edit, bool) {
	if imp.Module.IsRelative() {
		if !r.relocated(src.Path, origin) {
			return edit{}, false
		}
		text, ok := r.relativeText(imp.Module.WithoutWildcard(), src.Path, origin)
		if !ok {
			r.warn(src, imp, "relative import of a relocated file does not resolve inside the bundle")
			return edit{}, false
		}
		return edit{span: imp.ModuleSpan, text: text}, true
	}

	if r.opts.Relative {
		if text, ok := r.relativeText(imp.Module.WithoutWildcard(), src.Path, origin); ok {
			return edit{span: imp.ModuleSpan, text: text}, true
		}
	}
	if r.prefixable(imp.Module) {
		return edit{span: pysrc.Span{Start: imp.ModuleSpan.Start, End: imp.ModuleSpan.Start}, text: r.opts.Namespace + "."}, true
	}
	return edit{}, false
}

// plainEdits handles one `import a.b [as x], ...` statement. When any target
// becomes a `from` import the whole statement is rebuilt as `;`-separated
// statements; otherwise targets are prefixed in place.
func (r *run) plainEdits(src *pysrc.SourceFile, group []pysrc.ImportStatement, origin string) []edit {
	pieces := make([]string, len(group))
	var inPlace []edit
	rebuilt := false

	for i, imp := range group {
		name := imp.Names[0]
		targetText := string(src.Source[name.Span.Start:name.Span.End])
		pieces[i] = "import " + targetText

		if r.opts.Relative {
			if _, ok := r.targetOf(imp.Module, origin); ok {
				if name.Alias == "" {
					r.warn(src, imp, "unaliased import of a project module cannot be made relative")
					continue
				}
				segs := imp.Module.Segments()
				if text, ok := r.parentRelativeText(imp.Module, src.Path, origin); ok {
					pieces[i] = fmt.Sprintf("from %s import %s as %s", text, segs[len(segs)-1], name.Alias)
					rebuilt = true
					continue
				}
			}
		}
		if r.prefixable(imp.Module) {
			if name.Alias == "" {
				r.warn(src, imp, "unaliased import cannot be prefixed without changing the bound name")
				continue
			}
			pieces[i] = "import " + r.opts.Namespace + "." + targetText
			inPlace = append(inPlace, edit{
				span: pysrc.Span{Start: imp.ModuleSpan.Start, End: imp.ModuleSpan.Start},
				text: r.opts.Namespace + ".",
			})
		}
	}

	if rebuilt {
		return []edit{{span: group[0].Span, text: strings.Join(pieces, "; ")}}
	}
	return inPlace
}

// targetOf resolves ref from the original file and returns the last
// resolved project file when it was copied into the bundle.
func (r *run) targetOf(ref pysrc.ModuleReference, origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	files := r.opts.Resolver.Resolve(ref, origin)
	if len(files) == 0 {
		return "", false
	}
	dst, ok := r.located[files[len(files)-1]]
	return dst, ok
}

// relativeText renders the relative module path from the bundle file at path
// to the new location of ref's target.
func (r *run) relativeText(ref pysrc.ModuleReference, path, origin string) (string, bool) {
	dst, ok := r.targetOf(ref, origin)
	if !ok {
		return "", false
	}
	return relativeModule(filepath.Dir(path), moduleLocation(dst))
}

// parentRelativeText renders the relative path to the package containing
// ref's target, for `from <parent> import <last>` forms.
func (r *run) parentRelativeText(ref pysrc.ModuleReference, path, origin string) (string, bool) {
	dst, ok := r.targetOf(ref, origin)
	if !ok {
		return "", false
	}
	return relativeModule(filepath.Dir(path), filepath.Dir(moduleLocation(dst)))
}

func (r *run) keepsPath(dst, src string) bool {
	newRel, err1 := filepath.Rel(r.opts.BundleDir, dst)
	oldRel, err2 := filepath.Rel(r.opts.Resolver.Root(), src)
	return err1 == nil && err2 == nil && newRel == oldRel
}

// relocated reports whether the bundle file sits in a different directory,
// relative to the bundle root, than its origin did relative to the project.
func (r *run) relocated(path, origin string) bool {
	if origin == "" {
		return false
	}
	newDir, err1 := filepath.Rel(r.opts.BundleDir, filepath.Dir(path))
	oldDir, err2 := filepath.Rel(r.opts.Resolver.Root(), filepath.Dir(origin))
	return err1 != nil || err2 != nil || newDir != oldDir
}

func (r *run) prefixable(ref pysrc.ModuleReference) bool {
	segs := ref.Segments()
	return !ref.IsRelative() && len(segs) > 0 && r.toplevel[segs[0]]
}

func (r *run) warn(src *pysrc.SourceFile, imp pysrc.ImportStatement, msg string) {
	r.report.Warnings = append(r.report.Warnings, Warning{
		File:      src.Path,
		Line:      imp.Row,
		Statement: imp.Line,
		Message:   msg,
	})
}

// moduleLocation is the path a module occupies as a name: the package
// directory for a marker file, otherwise the file without its extension.
func moduleLocation(file string) string {
	if filepath.Base(file) == resolve.PackageMarker {
		return filepath.Dir(file)
	}
	return strings.TrimSuffix(file, resolve.SourceExt)
}

// relativeModule expresses target relative to the package directory fromDir
// as a dotted relative reference: one dot for the current package plus one
// per ancestor step.
func relativeModule(fromDir, target string) (string, bool) {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return ".", true
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	up := 0
	for up < len(parts) && parts[up] == ".." {
		up++
	}
	return strings.Repeat(".", up+1) + strings.Join(parts[up:], "."), true
}

// topLevelModules collects the names importable at the bundle root.
func topLevelModules(bundleDir string, origins map[string]string) map[string]bool {
	out := make(map[string]bool)
	for dst := range origins {
		rel, err := filepath.Rel(bundleDir, dst)
		if err != nil || !strings.HasSuffix(rel, resolve.SourceExt) {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) == 1 {
			if parts[0] != resolve.PackageMarker {
				out[strings.TrimSuffix(parts[0], resolve.SourceExt)] = true
			}
			continue
		}
		if !strings.HasPrefix(parts[0], "..") {
			out[parts[0]] = true
		}
	}
	return out
}

func apply(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}
	slices.SortFunc(edits, func(a, b edit) int { return cmp.Compare(b.span.Start, a.span.Start) })
	out := slices.Clone(src)
	for _, e := range edits {
		out = slices.Concat(out[:e.span.Start], []byte(e.text), out[e.span.End:])
	}
	return out
}

func writeKeepingMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}
