// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Catalog entries.
const (
	HyperfineNotFoundId Id = iota + 1
	ProjectNotFoundId
	MalformedConfigId
	LinkerTemplateMissingId
	BenchmarkFailedId
	ConfigLoadFailedId
	UnknownKnobId
	InvalidPlanId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of an issue page.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a help page shown alongside an error.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

var (
	// render is swapped in tests.
	render = glamour.Render

	hyperfineNotFoundIssue = &Issue{
		id: HyperfineNotFoundId,
		mdMsg: `
# hyperfine not found!

customs times every build with hyperfine, which must be installed and on your PATH.

## Things you can try:
- Install it with cargo:
~~~
$ cargo install --locked hyperfine
~~~
- Or point customs at an existing binary in your config file:
~~~cue
hyperfine: tool: "/opt/bin/hyperfine"
~~~`,
		extLinks: []HttpLink{"https://github.com/sharkdp/hyperfine"},
	}

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# Cargo project not found!

customs edits ` + "`Cargo.toml`" + ` and ` + "`.cargo/config.toml`" + ` in the project directory, and
at least one of them could not be read.

## Things you can try:
- Pass the workspace root explicitly:
~~~
$ customs run --project-dir /path/to/workspace
~~~
- Create ` + "`.cargo/config.toml`" + ` if the project does not have one yet
- Check the file names under ` + "`knobs`" + ` in your config file`,
	}

	malformedConfigIssue = &Issue{
		id: MalformedConfigId,
		mdMsg: `
# Malformed Cargo configuration!

A TOML file in the project could not be parsed, or a key customs edits has an
unexpected shape (for example ` + "`build`" + ` is a string instead of a table).

## Things you can try:
- Check the file with cargo itself:
~~~
$ cargo metadata --format-version 1 > /dev/null
~~~
- Restore the file from version control and retry`,
	}

	linkerTemplateMissingIssue = &Issue{
		id: LinkerTemplateMissingId,
		mdMsg: `
# Linker template missing!

The mold knob switches the linker by uncommenting a template in
` + "`.cargo/config.toml`" + `. No such template was found for the target triple.

## Add the template:
~~~toml
[target.x86_64-unknown-linux-gnu]
#linker = "clang"
#rustflags = ["-C", "link-arg=-fuse-ld=/usr/bin/mold"]
~~~`,
		extLinks: []HttpLink{"https://github.com/rui314/mold"},
	}

	benchmarkFailedIssue = &Issue{
		id: BenchmarkFailedId,
		mdMsg: `
# Benchmark failed!

hyperfine exited with a non-zero status, usually because the build or its setup
command failed. Knobs are left in the state of the failed step.

## Things you can try:
- Run the build by hand in the current state:
~~~
$ customs knob status
$ cargo leptos build
~~~
- Preview the walk without running anything:
~~~
$ customs run --dry-run
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The customs config file could not be read or does not match the schema.

## Things you can try:
- Show where customs looks for its config:
~~~
$ customs config path
~~~
- Write a fresh default file:
~~~
$ customs config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	unknownKnobIssue = &Issue{
		id: UnknownKnobId,
		mdMsg: `
# Unknown knob!

## Valid knobs:
- ` + "`o3`" + `: aggressive dependency optimization
- ` + "`cranelift`" + `: alternate code generator
- ` + "`mold`" + `: alternate linker
- ` + "`parallel`" + `: parallel compiler frontend`,
	}

	invalidPlanIssue = &Issue{
		id: InvalidPlanId,
		mdMsg: `
# Invalid benchmark plan!

A plan must have at least one step and must not visit the same knob state twice.

## Things you can try:
- List the built-in plans:
~~~
$ customs plan --plan full
~~~
- Check the ` + "`steps`" + ` list in your config file`,
	}

	issues = map[Id]*Issue{
		hyperfineNotFoundIssue.Id():     hyperfineNotFoundIssue,
		projectNotFoundIssue.Id():       projectNotFoundIssue,
		malformedConfigIssue.Id():       malformedConfigIssue,
		linkerTemplateMissingIssue.Id(): linkerTemplateMissingIssue,
		benchmarkFailedIssue.Id():       benchmarkFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		unknownKnobIssue.Id():           unknownKnobIssue,
		invalidPlanIssue.Id():           invalidPlanIssue,
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the page with a glamour style such as "dark" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also:\n")
		for _, link := range i.extLinks {
			sb.WriteString("- " + string(link) + "\n")
		}
	}
	return render(sb.String(), stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
