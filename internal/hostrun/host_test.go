// SPDX-License-Identifier: MPL-2.0

package hostrun

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/addonkit/addonkit/internal/testutil"
)

// fakeHost writes an executable shell script standing in for the host.
func fakeHost(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake host is a shell script")
	}
	exe := filepath.Join(t.TempDir(), "blender")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return exe
}

func TestHost_RunRewritesTracebacks(t *testing.T) {
	t.Parallel()
	exe := fakeHost(t, `echo 'Traceback (most recent call last):' >&2
echo '  File "/host/addons/demo/ops.py", line 3' >&2
echo 'error in /host/addons/demo/ops.py' >&2
exit 3
`)
	h, err := New(exe, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	var stderr bytes.Buffer
	h.Stderr = &stderr

	err = h.Run(context.Background(), RunOptions{
		Script:       EnableScript("demo"),
		DeployedPath: "/host/addons/demo",
		ProjectRoot:  "/work/project",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got := stderr.String()
	if !strings.Contains(got, `  File "/work/project/ops.py", line 3`) {
		t.Errorf("traceback path was not mapped back:\n%s", got)
	}
	if !strings.Contains(got, "error in /host/addons/demo/ops.py") {
		t.Errorf("non-traceback lines must pass through unchanged:\n%s", got)
	}
}

func TestHost_RunCancel(t *testing.T) {
	t.Parallel()
	exe := fakeHost(t, "exec sleep 30\n")
	h, err := New(exe, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	h.Stderr = &bytes.Buffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, RunOptions{}) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestHost_Version(t *testing.T) {
	t.Parallel()
	exe := fakeHost(t, "echo 'Blender 4.2.1 LTS'\necho '\tbuild date: 2024-08-19'\n")
	h, err := New(exe, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	v, err := h.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v.String() != "4.2.1" {
		t.Errorf("Version() = %s, want 4.2.1", v)
	}

	path, err := h.AddonPath(context.Background())
	if err != nil {
		t.Fatalf("AddonPath() error: %v", err)
	}
	if runtime.GOOS != "darwin" {
		want := filepath.Join(filepath.Dir(exe), "4.2", "scripts", "addons")
		if path != want {
			t.Errorf("AddonPath() = %q, want %q", path, want)
		}
	}
}

func TestNew_Missing(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "nope"), nil)
	if !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("New() error = %v, want ErrExecutableNotFound", err)
	}
	if _, err := New(t.TempDir(), nil); !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("a directory must not be accepted as the executable, got %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{"Blender 3.6.0\n", "3.6.0", false},
		{"Color management: using fallback\nBlender 4.2.1 LTS\n", "4.2.1", false},
		{"Blender 2.93\n", "2.93.0", false},
		{"Blender banana\n", "", true},
		{"nothing here\n", "", true},
	}
	for _, tt := range tests {
		v, err := ParseVersion(tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrVersionUnknown) {
				t.Errorf("ParseVersion(%q) error %v does not wrap ErrVersionUnknown", tt.output, err)
			}
			continue
		}
		if v.String() != tt.want {
			t.Errorf("ParseVersion(%q) = %s, want %s", tt.output, v, tt.want)
		}
	}
}

func TestDefaultAddonPath(t *testing.T) {
	t.Parallel()
	v, err := ParseVersion("Blender 4.2.0")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "blender")

	if got, want := DefaultAddonPath("linux", exe, "/home/u", v), filepath.Join(dir, "4.2", "scripts", "addons"); got != want {
		t.Errorf("linux = %q, want %q", got, want)
	}
	testutil.MustMkdirAll(t, filepath.Join(dir, "4.2", "scripts", "addons_core"))
	if got, want := DefaultAddonPath("windows", exe, "", v), filepath.Join(dir, "4.2", "scripts", "addons_core"); got != want {
		t.Errorf("addons_core = %q, want %q", got, want)
	}
	if got, want := DefaultAddonPath("darwin", exe, "/Users/u", v), filepath.Join("/Users/u", "Library", "Application Support", "Blender", "4.2", "scripts", "addons"); got != want {
		t.Errorf("darwin = %q, want %q", got, want)
	}
}

func TestNormalizeExePath(t *testing.T) {
	t.Parallel()
	if got, want := NormalizeExePath("/Applications/Blender.app"), filepath.Join("/Applications/Blender.app", "Contents", "MacOS", "Blender"); got != want {
		t.Errorf("NormalizeExePath(.app) = %q, want %q", got, want)
	}
	if got := NormalizeExePath("/usr/bin/blender"); got != "/usr/bin/blender" {
		t.Errorf("NormalizeExePath() = %q", got)
	}
}

func TestScripts(t *testing.T) {
	t.Parallel()
	if got, want := EnableScript("demo"), "import bpy\nbpy.ops.preferences.addon_enable(module=\"demo\")"; got != want {
		t.Errorf("EnableScript() = %q, want %q", got, want)
	}
	s := HotReloadScript("demo", filepath.Join("/host", "addons", "demo", "addon.txt"))
	for _, want := range []string{
		`addon_enable(module="demo")`,
		`addon_disable(module="demo")`,
		`os.path.exists("/host/addons/demo/addon.txt")`,
		`if k.startswith("demo"):`,
		"bpy.app.timers.register(watch_update_tick)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("HotReloadScript() is missing %q", want)
		}
	}
}
