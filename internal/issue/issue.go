// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	NoInterpretersFoundId Id = iota + 1
	InterpreterNotFoundId
	InspectionFailedId
	ConfigLoadFailedId
	InvalidConfigId
	WatchUnavailableId
)

type MarkdownMsg string

type HttpLink string

// Issue is a Markdown help page shown when a command fails.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns a copy of the external reading list.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page with glamour using the given style ("dark",
// "light", "notty" or a path to a JSON style).
func (i *Issue) Render(style string) (string, error) {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			b.WriteString("\n- <")
			b.WriteString(string(link))
			b.WriteString(">")
		}
	}
	return render(b.String(), style)
}

var (
	render = glamour.Render

	noInterpretersFoundIssue = &Issue{
		id: NoInterpretersFoundId,
		mdMsg: `
# No Python interpreters found

None of the configured sources produced an interpreter.

## Sources that were searched
1. Directories on your ` + "`PATH`" + ` (unless ` + "`discovery.include_path`" + ` is false)
2. ` + "`discovery.search_paths`" + ` from your config file
3. Conda environments listed in ` + "`.condarc`" + ` and ` + "`~/.conda/environments.txt`" + `
4. pyenv, virtualenvwrapper and pipenv homes
5. Virtual environments below each workspace root

## Things you can try
- Check that python is installed:
~~~
$ python3 --version
~~~
- Add the directory holding your interpreter to the config file:
~~~cue
discovery: search_paths: ["/opt/python/3.12/bin"]
~~~
- Pass the project directory explicitly:
~~~
$ pyenvs list --workspace ./my-project
~~~`,
		extLinks: []HttpLink{"https://docs.python.org/3/using/index.html"},
	}

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# Interpreter not recognised

The path was not produced by any locator, so nothing is known about it.

## Things you can try
- Pass the interpreter executable itself, not its environment directory
- Make sure the environment lives under a workspace root or a configured
  search path
- Use ` + "`pyenvs inspect <path>`" + ` to run the interpreter directly`,
	}

	inspectionFailedIssue = &Issue{
		id: InspectionFailedId,
		mdMsg: `
# Interpreter inspection failed

pyenvs ran the interpreter to read its version and prefix, but it did not
answer with valid data.

## Common causes
- The executable is a broken shim or a dangling symlink
- The interpreter hangs on start-up (a slow ` + "`sitecustomize`" + `, for example)
- The file is not a Python interpreter

## Things you can try
- Run the interpreter by hand:
~~~
$ /path/to/python -c "import sys; print(sys.version)"
~~~
- Raise the probe timeout:
~~~cue
inspect: timeout: "60s"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The config file could not be read or parsed as CUE.

## Things you can try
- Print where pyenvs looks for the file:
~~~
$ pyenvs config path
~~~
- Write a fresh file with default values:
~~~
$ pyenvs config init
~~~
- Check the file with the cue tool:
~~~
$ cue vet config.cue
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidConfigIssue = &Issue{
		id: InvalidConfigId,
		mdMsg: `
# Invalid configuration value

The config file parsed, but a value is out of range.

## Rules
- ` + "`inspect.workers`" + ` must be between 1 and 64
- ` + "`inspect.timeout`" + ` must be a positive duration such as ` + "`\"15s\"`" + `
- ` + "`discovery.recurse_depth`" + ` must not be negative
- ` + "`discovery.search_paths`" + ` entries must be non-empty paths
- ` + "`ui.color_scheme`" + ` is one of ` + "`auto`" + `, ` + "`dark`" + ` or ` + "`light`" + `

## Things you can try
- Show the effective configuration:
~~~
$ pyenvs config show
~~~`,
	}

	watchUnavailableIssue = &Issue{
		id: WatchUnavailableId,
		mdMsg: `
# Filesystem watching unavailable

pyenvs could not register watchers for environment directories. Discovery
still works, but new environments are only seen on the next listing.

## Things you can try
- On Linux, raise the inotify watch limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Narrow what is watched with ignore patterns:
~~~cue
discovery: ignore: ["**/node_modules/**"]
~~~
- Turn watching off:
~~~cue
discovery: watch: false
~~~`,
		extLinks: []HttpLink{"https://man7.org/linux/man-pages/man7/inotify.7.html"},
	}

	issues = map[Id]*Issue{
		noInterpretersFoundIssue.Id(): noInterpretersFoundIssue,
		interpreterNotFoundIssue.Id(): interpreterNotFoundIssue,
		inspectionFailedIssue.Id():    inspectionFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		invalidConfigIssue.Id():       invalidConfigIssue,
		watchUnavailableIssue.Id():    watchUnavailableIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss)
	}
	slices.SortFunc(out, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
