// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

type (
	// Entry is one file to place in a bundle.
	Entry struct {
		// Source is the absolute path of the file to copy.
		Source string
		// Target is the slash-separated path inside the bundle.
		Target string
	}

	// Plan is the ordered list of files a bundle directory receives. Later
	// entries for the same target replace earlier ones.
	Plan struct {
		entries []Entry
		index   map[string]int
	}
)

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{index: make(map[string]int)}
}

// Add schedules source to be copied to target.
func (p *Plan) Add(source, target string) {
	target = filepath.ToSlash(filepath.Clean(target))
	if i, ok := p.index[target]; ok {
		p.entries[i].Source = source
		return
	}
	p.index[target] = len(p.entries)
	p.entries = append(p.entries, Entry{Source: source, Target: target})
}

// Entries returns the planned entries sorted by target.
func (p *Plan) Entries() []Entry {
	out := slices.Clone(p.entries)
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Target < b.Target:
			return -1
		case a.Target > b.Target:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Len returns the number of planned files.
func (p *Plan) Len() int { return len(p.entries) }

// Materialize deletes dir, recreates it and copies every entry into it. It
// returns the map from each written file to its source.
func (p *Plan) Materialize(dir string) (map[string]string, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	origins := make(map[string]string, len(p.entries))
	for _, e := range p.Entries() {
		dst := filepath.Join(dir, filepath.FromSlash(e.Target))
		if err := CopyFile(e.Source, dst); err != nil {
			return nil, err
		}
		origins[dst] = e.Source
	}
	return origins, nil
}

// CopyFile copies src to dst, creating parent directories and keeping the
// permission bits of src.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// CopyDir copies the tree rooted at src into dst.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return CopyFile(path, target)
	})
}
