// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestValues_AllIdsRegistered(t *testing.T) {
	t.Parallel()
	values := Values()
	if len(values) != int(ConfigLoadFailedId) {
		t.Fatalf("Values() has %d issues, want %d", len(values), ConfigLoadFailedId)
	}
	for i, v := range values {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), i+1)
		}
		if strings.TrimSpace(string(v.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no guidance", v.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()
	if Get(AddonNotFoundId) == nil {
		t.Error("Get(AddonNotFoundId) returned nil")
	}
	if Get(Id(999)) != nil {
		t.Error("Get() of an unknown id must return nil")
	}
}

func TestIssue_DocLinksAreCopied(t *testing.T) {
	t.Parallel()
	i := Get(ManifestNotFoundId)
	links := i.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected documentation links")
	}
	links[0] = "changed"
	if i.DocLinks()[0] == "changed" {
		t.Error("DocLinks() must return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()
	out, err := Get(ManifestNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Extension manifest not found") {
		t.Errorf("rendered output is missing the title:\n%s", out)
	}
	if !strings.Contains(out, "See also") {
		t.Errorf("rendered output is missing the links section:\n%s", out)
	}
}

func TestIssue_RenderError(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })
	render = func(string, string) (string, error) { return "", errors.New("boom") }

	if _, err := Get(AddonNotFoundId).Render("notty"); err == nil {
		t.Error("expected the renderer error to propagate")
	}
}
