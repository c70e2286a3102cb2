package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestParseGlobal_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g := parseGlobal(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if g.server != "http://localhost:7331" {
		t.Errorf("unexpected default server %q", g.server)
	}
	if g.json {
		t.Error("expected --json to default false")
	}
}

func TestParseGlobal_Overrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g := parseGlobal(fs)
	if err := fs.Parse([]string{"--server", "http://example:9000", "--token", "tok", "--json"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if g.server != "http://example:9000" || g.token != "tok" || !g.json {
		t.Errorf("unexpected flags: %+v", g)
	}
}

func TestCmdExportShell_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := cmdExportShell([]string{"--out", dir}); err != nil {
		t.Fatalf("cmdExportShell: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "coordination_helper.sh")); err != nil {
		t.Errorf("expected coordination_helper.sh to be written: %v", err)
	}
}
