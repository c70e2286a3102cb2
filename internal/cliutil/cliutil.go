// Package cliutil provides human-output helpers for the swarmsh subcommand
// surface: colored status lines, a tabular renderer for status snapshots,
// and a --json/plain switch so every subcommand supports both output modes.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Printer renders subcommand results either as colored human text or as
// a JSON envelope, depending on JSON.
type Printer struct {
	Out  io.Writer
	JSON bool
}

// NewPrinter builds a Printer writing to w.
func NewPrinter(w io.Writer, jsonOutput bool) *Printer {
	return &Printer{Out: w, JSON: jsonOutput}
}

// Success prints data, either as a JSON envelope or via render.
func (p *Printer) Success(data interface{}, render func(io.Writer, interface{})) {
	if p.JSON {
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{"success": true, "data": data})
		return
	}
	render(p.Out, data)
}

// Error prints err, either as a JSON error body ({error:{kind,message,
// correlation_id}}) or as a colored message.
func (p *Printer) Error(kind, message, correlationID string) {
	if p.JSON {
		enc := json.NewEncoder(p.Out)
		_ = enc.Encode(map[string]interface{}{
			"error": map[string]string{
				"kind":           kind,
				"message":        message,
				"correlation_id": correlationID,
			},
		})
		return
	}
	color.New(color.FgRed).Fprintf(p.Out, "✗ %s\n", message)
}

// OK prints a green checkmark line in human mode; no-op in JSON mode (the
// caller already emitted the JSON envelope via Success).
func (p *Printer) OK(format string, args ...interface{}) {
	if p.JSON {
		return
	}
	color.New(color.FgGreen).Fprintf(p.Out, "✓ "+format+"\n", args...)
}

// Warn prints a yellow warning line in human mode.
func (p *Printer) Warn(format string, args ...interface{}) {
	if p.JSON {
		return
	}
	color.New(color.FgYellow).Fprintf(p.Out, "⚠ "+format+"\n", args...)
}

// Table renders rows of equal-length string columns with a header, padding
// each column to the widest cell.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string, bold bool) {
		var b strings.Builder
		for i, cell := range cells {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}
			b.WriteString(fmt.Sprintf("%-*s  ", width, cell))
		}
		line := strings.TrimRight(b.String(), " ")
		if bold {
			color.New(color.Bold).Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}

	writeRow(header, true)
	for _, row := range rows {
		writeRow(row, false)
	}
}
