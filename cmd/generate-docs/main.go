// generate-docs renders pkg/config's documentation-as-data (DirectoryDocs,
// AgentStateDocs, WorkStateDocs, EventDocs) into a markdown reference for
// the shell-export persisted state layout. It is the generating half of
// the verify-docs/generate-docs pair: a hypothetical verify-docs would
// parse the same state-struct/directory markers this tool emits and
// fail if pkg/config's doc helpers drift from them.
//
// Usage:
//
//	go run ./cmd/generate-docs > docs/STATE_LAYOUT.md
//	go run ./cmd/generate-docs --out docs/STATE_LAYOUT.md
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dlorenc/swarmsh-core/pkg/config"
)

func main() {
	out := flag.String("out", "", "write to this path instead of stdout")
	flag.Parse()

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate-docs: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	render(w)
}

func render(w io.Writer) {
	fmt.Fprintln(w, "# Persisted State Layout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generated from pkg/config's documentation helpers. Do not hand-edit; re-run cmd/generate-docs instead.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Directory layout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Path | Type | Description | Notes |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, d := range config.DirectoryDocs() {
		fmt.Fprintf(w, "| `%s` | %s | %s | %s |\n", d.Path, d.Type, escapeCell(d.Description), escapeCell(d.Notes))
	}
	fmt.Fprintln(w)

	renderFieldTable(w, "## Agent state fields (agents/<agent-id>.state)", "state-struct: AgentState", config.AgentStateDocs())
	renderFieldTable(w, "## Work state fields (work/<work-id>.state)", "state-struct: WorkState", config.WorkStateDocs())
	renderFieldTable(w, "## Event log fields (events/<YYYY-MM-DD>.log)", "state-struct: Event", config.EventDocs())
}

func renderFieldTable(w io.Writer, heading, marker string, fields []config.StateFieldDoc) {
	fmt.Fprintln(w, heading)
	fmt.Fprintln(w)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	fmt.Fprintf(w, "<!-- %s %s -->\n", marker, strings.Join(names, " "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Field | Type | Description |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, f := range fields {
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", f.Field, f.Type, escapeCell(f.Description))
	}
	fmt.Fprintln(w)
}

// escapeCell keeps a pipe in a doc string from breaking the markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
