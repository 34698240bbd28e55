// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/addonkit/addonkit/pkg/bundle"
)

// templateExts are the file types in which the template name is replaced.
var templateExts = []string{".py", ".toml"}

// Create copies the template addon to addons/<name> and replaces the
// template name inside its Python and TOML files. It returns the new addon
// folder.
func (w *Workspace) Create(name string) (string, error) {
	if err := bundle.ValidateName(name); err != nil {
		return "", &ValidationError{Op: "create", Subject: name, Err: err}
	}
	dst := w.AddonDir(name)
	if _, err := os.Stat(dst); err == nil {
		return "", &ValidationError{Op: "create", Subject: name, Err: ErrAddonExists}
	}
	template := w.AddonDir(TemplateAddon)
	if !w.Exists(TemplateAddon) {
		return "", &ValidationError{Op: "create", Subject: TemplateAddon, Err: ErrAddonNotFound}
	}

	if err := bundle.CopyDir(template, dst); err != nil {
		return "", fmt.Errorf("failed to copy template: %w", err)
	}

	err := filepath.WalkDir(dst, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && d.Name() == "__pycache__" {
			if err := os.RemoveAll(path); err != nil {
				return err
			}
			return filepath.SkipDir
		}
		if !d.Type().IsRegular() || !hasExt(path, templateExts) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		replaced := bytes.ReplaceAll(data, []byte(TemplateAddon), []byte(name))
		if bytes.Equal(replaced, data) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(path, replaced, info.Mode().Perm())
	})
	if err != nil {
		return "", fmt.Errorf("failed to instantiate template: %w", err)
	}

	w.logger.Info("addon created", "name", name, "path", dst)
	return dst, nil
}

func hasExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
