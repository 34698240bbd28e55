// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/addonkit/addonkit/pkg/bundle"
	"github.com/addonkit/addonkit/pkg/pysrc"
	"github.com/addonkit/addonkit/pkg/resolve"
	"github.com/addonkit/addonkit/pkg/rewrite"
)

const (
	// timestampLayout is yyyymmdd_HHMMSS.
	timestampLayout = "20060102_150405"
	// unknownVersion names releases whose version cannot be read.
	unknownVersion = "None"
	// legacyInfo is the module-level dict holding a legacy addon's metadata.
	legacyInfo = "bl_info"
)

type (
	// ReleaseOptions configures Release.
	ReleaseOptions struct {
		// DestinationDir receives the bundle folder and archive. It must lie
		// outside the workspace.
		DestinationDir string
		Zip            bool
		WithVersion    bool
		WithTimestamp  bool
		// Extension packages for the extension platform: imports become
		// relative and the manifest is required.
		Extension bool
	}

	// ReleaseResult describes a finished release.
	ReleaseResult struct {
		// BundleDir is <dest>/<name>.
		BundleDir string
		// ZipPath is the archive path, also reported when Zip is off.
		ZipPath string
		// Version is the version used in the archive name, if any.
		Version  string
		Closure  *resolve.Closure
		Rewrite  *rewrite.Report
		Wheels   []string
		Manifest *bundle.Manifest
	}
)

// Release assembles addons/<name> into a self-contained bundle under
// opts.DestinationDir:
//
//	<dest>/<name>/__init__.py           the addon's init
//	<dest>/<name>/<non-Python siblings> manifest and other data files
//	<dest>/<name>/addons/__init__.py
//	<dest>/<name>/addons/<name>/...     the whole addon folder
//	<dest>/<name>/<closure files>       at their workspace-relative paths
//
// The bundle folder is deleted and rebuilt on every call. Compiled files
// and empty folders are pruned, imports are rewritten, manifest wheels are
// copied when zipping, and the folder is archived when opts.Zip is set.
func (w *Workspace) Release(ctx context.Context, name string, opts ReleaseOptions) (*ReleaseResult, error) {
	if err := bundle.ValidateName(name); err != nil {
		return nil, &ValidationError{Op: "release", Subject: name, Err: err}
	}
	dest, err := filepath.Abs(opts.DestinationDir)
	if err != nil {
		return nil, fmt.Errorf("release directory %q: %w", opts.DestinationDir, err)
	}
	if opts.DestinationDir == "" || within(dest, w.root) {
		return nil, &ValidationError{Op: "release", Subject: dest, Err: ErrReleaseDirInside}
	}
	if err := w.requireAddon("release", name); err != nil {
		return nil, err
	}

	addonDir := w.AddonDir(name)
	manifest, err := bundle.LoadManifest(addonDir)
	switch {
	case err == nil:
	case errors.Is(err, bundle.ErrManifestNotFound) && !opts.Extension:
		manifest = nil
	case errors.Is(err, bundle.ErrManifestNotFound):
		return nil, &ValidationError{Op: "release", Subject: name, Err: err}
	default:
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := w.newResolver()
	if err != nil {
		return nil, err
	}
	entries, err := w.entryFiles(name)
	if err != nil {
		return nil, err
	}
	closure, err := r.Closure(entries...)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", name, err)
	}
	w.logger.Debug("dependency closure", "addon", name, "files", closure.Len())

	plan, err := w.plan(name, closure)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create release directory: %w", err)
	}
	bundleDir := filepath.Join(dest, name)
	origins, err := plan.Materialize(bundleDir)
	if err != nil {
		return nil, err
	}
	if err := bundle.Prune(bundleDir); err != nil {
		return nil, err
	}
	for dst := range origins {
		if _, err := os.Stat(dst); err != nil {
			delete(origins, dst)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := rewrite.Bundle(rewrite.Options{
		Resolver:  r,
		BundleDir: bundleDir,
		Namespace: name,
		Origins:   origins,
		Relative:  opts.Extension,
		Logger:    w.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", name, err)
	}

	res := &ReleaseResult{
		BundleDir: bundleDir,
		Closure:   closure,
		Rewrite:   report,
		Manifest:  manifest,
	}

	if opts.Zip && manifest != nil {
		if res.Wheels, err = manifest.CopyWheels(w.root, bundleDir); err != nil {
			return nil, err
		}
	}

	archive := name
	if opts.WithVersion {
		res.Version = w.version(name, manifest, opts.Extension)
		archive += "_V" + res.Version
	}
	if opts.WithTimestamp {
		archive += "_" + w.clock.Now().Format(timestampLayout)
	}
	res.ZipPath = filepath.Join(dest, archive+".zip")

	if opts.Zip {
		if err := bundle.Pack(bundleDir, res.ZipPath); err != nil {
			return nil, err
		}
		w.logger.Info("addon released", "path", res.ZipPath)
	}
	return res, nil
}

// entryFiles are every Python file of the addon plus addons/__init__.py.
func (w *Workspace) entryFiles(name string) ([]string, error) {
	var entries []string
	err := filepath.WalkDir(w.AddonDir(name), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "__pycache__" {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() && strings.HasSuffix(path, resolve.SourceExt) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list addon sources: %w", err)
	}
	if pkg := filepath.Join(w.root, AddonsDir, resolve.PackageMarker); fileExists(pkg) {
		entries = append(entries, pkg)
	}
	return entries, nil
}

// plan lays out the bundle. Later entries win for the same target, so the
// root init and siblings are added last.
func (w *Workspace) plan(name string, closure *resolve.Closure) (*bundle.Plan, error) {
	p := bundle.NewPlan()
	for _, f := range closure.Files() {
		rel, err := filepath.Rel(w.root, f)
		if err != nil {
			return nil, err
		}
		p.Add(f, rel)
	}

	addonDir := w.AddonDir(name)
	err := filepath.WalkDir(addonDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		p.Add(path, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to plan addon folder: %w", err)
	}
	if pkg := filepath.Join(w.root, AddonsDir, resolve.PackageMarker); fileExists(pkg) {
		p.Add(pkg, filepath.Join(AddonsDir, resolve.PackageMarker))
	}

	siblings, err := os.ReadDir(addonDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read addon folder: %w", err)
	}
	for _, s := range siblings {
		if s.Type().IsRegular() && !strings.HasSuffix(s.Name(), resolve.SourceExt) {
			p.Add(filepath.Join(addonDir, s.Name()), s.Name())
		}
	}
	p.Add(w.InitFile(name), resolve.PackageMarker)
	return p, nil
}

// version reads the addon version: the manifest's in extension mode, the
// bl_info tuple otherwise. Unreadable versions yield "None".
func (w *Workspace) version(name string, manifest *bundle.Manifest, extension bool) string {
	var raw string
	if extension {
		if manifest != nil {
			raw = manifest.Version
		}
	} else {
		src, err := pysrc.ParseFile(w.InitFile(name))
		if err == nil {
			raw = strings.Join(src.Dicts[legacyInfo]["version"], ".")
		}
	}
	if raw == "" {
		w.logger.Warn("fetch version info failed, using 'None'", "addon", name)
		return unknownVersion
	}
	if v, err := semver.StrictNewVersion(raw); err == nil {
		return v.String()
	}
	if extension {
		w.logger.Warn("manifest version is not semantic", "addon", name, "version", raw)
	}
	return raw
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
