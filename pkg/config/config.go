//go:generate go run ../../cmd/generate-docs

package config

import (
	"os"
	"path/filepath"
)

// Paths resolves every on-disk location of the shell-export persisted
// state layout, rooted at a base directory.
type Paths struct {
	Root      string // base directory, e.g. $HOME/.swarmsh/
	AgentsDir string // agents/<agent-id>.state
	WorkDir   string // work/<work-id>.state(.lock)
	CoordDir  string // coord/epoch.lock
	EventsDir string // events/<YYYY-MM-DD>.log
}

// DefaultPaths returns the default paths for a swarmsh engine rooted at
// $HOME/.swarmsh.
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(filepath.Join(home, ".swarmsh")), nil
}

// NewPaths builds a Paths rooted at base. The engine takes a *Paths as a
// constructor argument rather than resolving a package-level singleton,
// since swarmsh-core is a library first and a CLI tool second.
func NewPaths(base string) *Paths {
	return &Paths{
		Root:      base,
		AgentsDir: filepath.Join(base, "agents"),
		WorkDir:   filepath.Join(base, "work"),
		CoordDir:  filepath.Join(base, "coord"),
		EventsDir: filepath.Join(base, "events"),
	}
}

// Base returns the root directory these paths are resolved under.
func (p *Paths) Base() string {
	return p.Root
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.AgentsDir,
		p.WorkDir,
		p.CoordDir,
		p.EventsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// AgentStateFile returns the persisted state path for agentID.
func (p *Paths) AgentStateFile(agentID string) string {
	return filepath.Join(p.AgentsDir, agentID+".state")
}

// WorkStateFile returns the persisted claim+item state path for workID.
func (p *Paths) WorkStateFile(workID string) string {
	return filepath.Join(p.WorkDir, workID+".state")
}

// WorkLockFile returns the transient lock path guarding workID's state file.
func (p *Paths) WorkLockFile(workID string) string {
	return p.WorkStateFile(workID) + ".lock"
}

// EpochLockFile returns the transient lock path guarding the coordination epoch.
func (p *Paths) EpochLockFile() string {
	return filepath.Join(p.CoordDir, "epoch.lock")
}

// EventLogFile returns the JSON-lines telemetry log path for date
// (formatted YYYY-MM-DD).
func (p *Paths) EventLogFile(date string) string {
	return filepath.Join(p.EventsDir, date+".log")
}

// CorruptFile returns the quarantine path for a state file that failed to
// parse, per the StateCorruption recovery policy.
func (p *Paths) CorruptFile(path string) string {
	return path + ".corrupt"
}
