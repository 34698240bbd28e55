// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"crypto/md5" //nolint:gosec // change marker, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SignatureFile is written next to a deployed addon. The host-side reloader
// compares its content to detect a new deployment.
const SignatureFile = "addon.txt"

// Signature returns the folder digest of dir: the md5 of the concatenated
// hex md5 digests of every regular file, in lexical path order.
func Signature(dir string) (string, error) {
	var digests strings.Builder
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		sum, err := fileMD5(path)
		if err != nil {
			return err
		}
		digests.WriteString(sum)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", dir, err)
	}
	sum := md5.Sum([]byte(digests.String())) //nolint:gosec // see import
	return hex.EncodeToString(sum[:]), nil
}

// WriteSignature writes signature into dir/addon.txt.
func WriteSignature(dir, signature string) error {
	path := filepath.Join(dir, SignatureFile)
	if err := os.WriteFile(path, []byte(signature), 0o644); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}
	return nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // see import
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
