// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ddddddO/gtree"
)

// Tree renders the directory layout of dir to w.
func Tree(w io.Writer, dir string) error {
	root := gtree.NewRoot(filepath.Base(dir) + "/")
	nodes := map[string]*gtree.Node{dir: root}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == dir {
			return nil
		}
		parent, ok := nodes[filepath.Dir(path)]
		if !ok {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			name += "/"
		}
		node := parent.Add(name)
		if d.IsDir() {
			nodes[path] = node
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	if err := gtree.OutputFromRoot(w, root); err != nil {
		return fmt.Errorf("failed to render tree: %w", err)
	}
	return nil
}

// TreeString renders the layout of dir as a string.
func TreeString(dir string) (string, error) {
	var sb strings.Builder
	if err := Tree(&sb, dir); err != nil {
		return "", err
	}
	return sb.String(), nil
}
