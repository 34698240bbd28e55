// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Prune removes compiled Python files and cache directories below dir, then
// every directory left empty. dir itself is kept.
func Prune(dir string) error {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == "__pycache__" {
				if err := os.RemoveAll(path); err != nil {
					return fmt.Errorf("failed to remove %s: %w", path, err)
				}
				return filepath.SkipDir
			}
			if path != dir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".pyc") {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first, so parents emptied by their children go too.
	slices.SortFunc(dirs, func(a, b string) int { return len(b) - len(a) })
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", d, err)
		}
		if len(entries) == 0 {
			if err := os.Remove(d); err != nil {
				return fmt.Errorf("failed to remove %s: %w", d, err)
			}
		}
	}
	return nil
}
