// SPDX-License-Identifier: MPL-2.0

// Package watch drives the live-reload loop of `addonkit test --watch`.
//
// A Watcher runs an fsnotify event loop in its own goroutine and raises a
// shared "changed" flag whenever a matching file changes. Loop polls that
// flag on a fixed interval and runs one full cycle per positive poll, so
// cycles never overlap and bursts of events collapse into a single cycle.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultPatterns select the files whose changes trigger a cycle.
var DefaultPatterns = []string{"**/*.py"}

// defaultIgnores are always excluded: VCS metadata, bytecode caches, editor
// swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root directory to watch recursively. Defaults to the
		// working directory.
		BaseDir string
		// Patterns are doublestar globs relative to BaseDir. Defaults to
		// DefaultPatterns.
		Patterns []string
		// Ignore are extra doublestar globs merged with the default ignores.
		Ignore []string
		// Exclude are absolute directories never watched, such as a release
		// directory that lives inside BaseDir.
		Exclude []string
		Logger  *log.Logger
	}

	// Watcher raises a flag when watched files change.
	Watcher struct {
		fsw      *fsnotify.Watcher
		baseDir  string
		patterns []string
		ignores  []string
		exclude  []string
		logger   *log.Logger
		changed  atomic.Bool
		started  atomic.Bool
	}
)

// New creates a Watcher and registers every non-ignored directory below
// cfg.BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if err := validatePatterns(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		baseDir:  absBase,
		patterns: patterns,
		ignores:  append(append([]string{}, defaultIgnores...), cfg.Ignore...),
		logger:   logger,
	}
	for _, dir := range cfg.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Changed reports whether a change was seen since the last TakeChange.
func (w *Watcher) Changed() bool { return w.changed.Load() }

// TakeChange clears the flag and reports whether it was set.
func (w *Watcher) TakeChange() bool { return w.changed.CompareAndSwap(true, false) }

// MarkChanged raises the flag as if a watched file changed.
func (w *Watcher) MarkChanged() { w.changed.Store(true) }

// Run processes filesystem events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil || w.excluded(evt.Name) || w.isIgnored(rel) || !w.matches(rel) {
				continue
			}
			w.logger.Debug("change detected", "path", rel, "op", evt.Op.String())
			w.changed.Store(true)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if watcherBroken(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // unreadable directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipDir(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "err", err)
	}
}

func (w *Watcher) skipDir(path string) bool {
	if w.excluded(path) {
		return true
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return true
	}
	return rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/"))
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !hasParentPrefix(rel) {
			return true
		}
	}
	return false
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return matchAny(w.patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return append([]string{}, defaultIgnores...)
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
