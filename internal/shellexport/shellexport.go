// Package shellexport implements the Shell-Export Transformer (C11): it
// lowers the coordination engine's component contracts (C1-C10) into an
// ordered collection of POSIX shell scripts that preserve invariants I1
// (strictly increasing nanosecond ids with a floor), I3 (single-claimant
// claims under lock), I4 (monotonic coordination epochs), I6 (the atomic
// pattern's fence), and I7 (a lock file's lifetime brackets its critical
// section).
//
// The transformer consumes no runtime state of its own; ExportFull and
// ExportComponent render a fixed set of templates to disk, the same way
// the engine's original_source/src/bin/shell_exporter.rs rendered a
// full/component/list/templates command surface.
package shellexport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Config controls how scripts are rendered. OptimizationLevel mirrors the
// original exporter's 1-3 scale: at level 1 every component script sources
// a shared coordination_lib.sh; at levels 2 (the default) and 3 the helper
// functions are inlined directly into each generated script so it has no
// sourcing dependency on the library. Levels 2 and 3 render identically.
type Config struct {
	OutputDir            string
	IncludeTelemetry     bool
	IncludeAIIntegration bool
	OptimizationLevel    int
}

// DefaultConfig returns the exporter's default configuration.
func DefaultConfig(outputDir string) Config {
	return Config{
		OutputDir:            outputDir,
		IncludeTelemetry:     true,
		IncludeAIIntegration: true,
		OptimizationLevel:    2,
	}
}

func (c Config) normalized() Config {
	if c.OutputDir == "" {
		c.OutputDir = "./shell-export"
	}
	if c.OptimizationLevel < 1 || c.OptimizationLevel > 3 {
		c.OptimizationLevel = 2
	}
	return c
}

// Component describes one exportable unit of the shell surface.
type Component struct {
	Name        string
	Description string
	Filename    string
}

// components is the fixed list the transformer knows how to render, in
// the order ExportFull writes them, coordination first.
var components = []Component{
	{
		Name:        "coordination",
		Description: "main dispatcher: routes subcommands to agent-lifecycle/work/telemetry/analytics/ai functions; owns the atomic-pattern epoch lock",
		Filename:    "coordination_helper.sh",
	},
	{
		Name:        "agent-lifecycle",
		Description: "register-agent, heartbeat, health: file-backed AgentState records under agents/<id>.state",
		Filename:    "agent_lifecycle.sh",
	},
	{
		Name:        "work",
		Description: "create-work, claim-work, update-progress, complete-work: file-backed WorkItem/WorkClaim records and the claim lock protocol",
		Filename:    "work_queue.sh",
	},
	{
		Name:        "telemetry",
		Description: "correlation id minting and JSON-lines event log emission under events/<YYYY-MM-DD>.log",
		Filename:    "telemetry_events.sh",
	},
	{
		Name:        "analytics",
		Description: "dlss/waste subcommand stub; analytics/DLSS waste reporting is out of this core's scope (spec §1 Non-goals)",
		Filename:    "analytics_stub.sh",
	},
	{
		Name:        "ai",
		Description: "ai-decision/ai-optimize subcommand stub; always reports OracleUnavailable, matching oracle.Null",
		Filename:    "ai_stub.sh",
	},
}

// ListComponents returns the fixed component list in export order.
func ListComponents() []Component {
	out := make([]Component, len(components))
	copy(out, components)
	return out
}

// componentByName looks up a Component by name, returning false if unknown.
func componentByName(name string) (Component, bool) {
	for _, c := range components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Manifest reports what ExportFull/ExportComponent/GenerateTemplates wrote.
type Manifest struct {
	OutputDir   string
	Files       []string
	GeneratedAt time.Time
}

// Exporter renders the shell-export templates. It is stateless; every
// method is safe to call concurrently.
type Exporter struct{}

// New constructs an Exporter.
func New() *Exporter {
	return &Exporter{}
}

// ExportFull renders every component's script under cfg.OutputDir, in
// component order, preceded at OptimizationLevel 1 by the shared library
// file (coordination_lib.sh). The telemetry and ai scripts are skipped when
// IncludeTelemetry or IncludeAIIntegration is false. The returned manifest
// lists the written files sorted by path.
func (e *Exporter) ExportFull(cfg Config) (*Manifest, error) {
	cfg = cfg.normalized()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("shellexport: creating output dir: %w", err)
	}

	m := &Manifest{OutputDir: cfg.OutputDir, GeneratedAt: time.Now()}

	if cfg.OptimizationLevel == 1 {
		path := filepath.Join(cfg.OutputDir, "coordination_lib.sh")
		if err := writeAtomic(path, renderLib(cfg)); err != nil {
			return nil, err
		}
		m.Files = append(m.Files, path)
	}

	for _, c := range components {
		if c.Name == "ai" && !cfg.IncludeAIIntegration {
			continue
		}
		if c.Name == "telemetry" && !cfg.IncludeTelemetry {
			continue
		}
		path := filepath.Join(cfg.OutputDir, c.Filename)
		if err := writeAtomic(path, render(c.Name, cfg)); err != nil {
			return nil, err
		}
		m.Files = append(m.Files, path)
	}

	sort.Strings(m.Files)
	return m, nil
}

// ExportComponent renders a single named component's script under
// cfg.OutputDir. Fails if name is not one of ListComponents().
func (e *Exporter) ExportComponent(name string, cfg Config) (*Manifest, error) {
	cfg = cfg.normalized()
	c, ok := componentByName(name)
	if !ok {
		return nil, fmt.Errorf("shellexport: unknown component %q", name)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("shellexport: creating output dir: %w", err)
	}

	path := filepath.Join(cfg.OutputDir, c.Filename)
	if err := writeAtomic(path, render(c.Name, cfg)); err != nil {
		return nil, err
	}

	return &Manifest{
		OutputDir:   cfg.OutputDir,
		Files:       []string{path},
		GeneratedAt: time.Now(),
	}, nil
}

// GenerateTemplates renders the same scripts as ExportFull at optimization
// level 1 (every helper sourced from a shared library), with the telemetry
// and ai scripts always included.
func (e *Exporter) GenerateTemplates(outputDir string) (*Manifest, error) {
	cfg := Config{
		OutputDir:            outputDir,
		IncludeTelemetry:     true,
		IncludeAIIntegration: true,
		OptimizationLevel:    1,
	}
	return e.ExportFull(cfg)
}

// writeAtomic writes content to path using the write-to-temp-then-rename
// pattern every generated script also uses for its own state mutations
// (spec §6.2), so a reader never observes a partially written file.
func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0755); err != nil {
		return fmt.Errorf("shellexport: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("shellexport: renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}
