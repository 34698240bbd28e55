// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type (
	// Id identifies a well-known issue.
	Id int

	// MarkdownMsg is guidance text in Markdown.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is Markdown guidance for one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

const (
	AddonNotFoundId Id = iota + 1
	AddonExistsId
	InvalidAddonNameId
	ReleaseDirInsideWorkspaceId
	ManifestNotFoundId
	WheelNotFoundId
	PythonParseErrorId
	RegistrationCycleId
	HostNotFoundId
	ConfigLoadFailedId
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the issue's documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render returns the guidance rendered for a terminal with the given glamour
// style ("dark", "light", "notty" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	extensionDocs = HttpLink("https://docs.blender.org/manual/en/latest/advanced/extensions/addons.html")

	issues = map[Id]*Issue{
		AddonNotFoundId: {
			id: AddonNotFoundId,
			mdMsg: `
# Addon not found!

Addons live in the ` + "`addons/`" + ` folder of the workspace, one subfolder per
addon, each with an ` + "`__init__.py`" + `.

## Things you can try:
- Check the spelling of the addon name
- Create it from the template:
~~~
$ addonkit create my_addon
~~~`,
		},
		AddonExistsId: {
			id: AddonExistsId,
			mdMsg: `
# Addon already exists!

` + "`addonkit create`" + ` never overwrites an existing addon folder.

## Things you can try:
- Pick another name
- Remove or rename the existing folder under ` + "`addons/`",
		},
		InvalidAddonNameId: {
			id: InvalidAddonNameId,
			mdMsg: `
# Invalid addon name!

Addon names are Python package names: they start with a letter and contain
only letters, digits and underscores.

## Examples
- ` + "`sample_addon`" + ` is valid
- ` + "`my-addon`" + ` and ` + "`2addon`" + ` are not`,
		},
		ReleaseDirInsideWorkspaceId: {
			id: ReleaseDirInsideWorkspaceId,
			mdMsg: `
# Release directory inside the workspace!

Bundles copy workspace files; releasing into the workspace would make the
next release pick up the previous one.

## Things you can try:
- Set a directory outside the workspace in ` + "`addonkit.cue`" + `:
~~~cue
default: release_dir: "../addon_release"
~~~
- Or pass ` + "`--release-dir`",
		},
		ManifestNotFoundId: {
			id: ManifestNotFoundId,
			mdMsg: `
# Extension manifest not found!

Extension releases read ` + "`blender_manifest.toml`" + ` from the addon folder.

## Things you can try:
- Add a manifest next to the addon's ` + "`__init__.py`" + `
- Release as a legacy addon by turning extension mode off`,
			docLinks: []HttpLink{extensionDocs},
		},
		WheelNotFoundId: {
			id: WheelNotFoundId,
			mdMsg: `
# Wheel file not found!

Every entry of ` + "`wheels`" + ` in the manifest is a path relative to the workspace
root and must exist when releasing.

## Things you can try:
- Download the required wheel into the ` + "`wheels/`" + ` folder
- Remove the entry from the manifest if it is no longer needed`,
			docLinks: []HttpLink{extensionDocs},
		},
		PythonParseErrorId: {
			id: PythonParseErrorId,
			mdMsg: `
# Python syntax error!

A file the addon imports could not be parsed, so its dependencies are unknown.
The release was aborted without writing a partial bundle.

## Things you can try:
- Fix the syntax error at the reported line
- Run the file through ` + "`python -m py_compile`",
		},
		RegistrationCycleId: {
			id: RegistrationCycleId,
			mdMsg: `
# Registration cycle detected!

Component classes must be registered after every class they reference,
inherit from or name as their parent. The listed classes depend on each other
in a loop, so no order satisfies them.

## Things you can try:
- Break the loop by removing one property reference or ` + "`bl_parent_id`" + `
- Run ` + "`addonkit order <addon>`" + ` to inspect the graph`,
		},
		HostNotFoundId: {
			id: HostNotFoundId,
			mdMsg: `
# Host executable not found!

` + "`addonkit test`" + ` launches the host application with the addon enabled.

## Things you can try:
- Set the executable path in ` + "`addonkit.cue`" + `:
~~~cue
host: exe_path: "/path/to/blender"
~~~
- Set ` + "`host.addon_path`" + ` if the addon folder cannot be derived`,
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of ` + "`addonkit.cue`" + `
- Compare the keys with the output of ` + "`addonkit config`",
		},
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
