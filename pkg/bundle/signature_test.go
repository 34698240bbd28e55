// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"path/filepath"
	"testing"

	"github.com/addonkit/addonkit/internal/testutil"
)

func TestSignature(t *testing.T) {
	t.Parallel()
	files := map[string]string{"__init__.py": "a", "sub/mod.py": "b"}
	a := t.TempDir()
	b := t.TempDir()
	testutil.WriteTree(t, a, files)
	testutil.WriteTree(t, b, files)

	sigA, err := Signature(a)
	if err != nil {
		t.Fatalf("Signature() error: %v", err)
	}
	sigB, _ := Signature(b)
	if sigA != sigB {
		t.Errorf("identical trees must sign identically: %s != %s", sigA, sigB)
	}
	if len(sigA) != 32 {
		t.Errorf("signature %q is not a hex md5", sigA)
	}

	testutil.MustWriteFile(t, filepath.Join(b, "sub", "mod.py"), "changed")
	if sigC, _ := Signature(b); sigC == sigA {
		t.Error("a content change must change the signature")
	}

	if err := WriteSignature(a, sigA); err != nil {
		t.Fatalf("WriteSignature() error: %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(a, SignatureFile)); got != sigA {
		t.Errorf("signature file = %q, want %q", got, sigA)
	}
}
