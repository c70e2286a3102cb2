package coordination

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ListenAddr = ":9999"
	cfg.Auth = &AuthConfig{Tokens: []string{"abc"}, RequireAuth: true}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Enabled != true || got.ListenAddr != ":9999" {
		t.Errorf("unexpected round trip: %+v", got)
	}
	if got.Auth == nil || !got.Auth.RequireAuth || len(got.Auth.Tokens) != 1 || got.Auth.Tokens[0] != "abc" {
		t.Errorf("unexpected auth round trip: %+v", got.Auth)
	}
	if got.HeartbeatInterval != 30*time.Second {
		t.Errorf("expected default heartbeat interval to survive partial override, got %v", got.HeartbeatInterval)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestSaveLoadClientConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")

	cfg := &ClientConfig{Enabled: true, ServerURL: "http://localhost:7331", Token: "tok", AgentID: "agent-1"}
	if err := SaveClientConfig(path, cfg); err != nil {
		t.Fatalf("SaveClientConfig: %v", err)
	}

	got, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if *got != *cfg {
		t.Errorf("expected round trip %+v, got %+v", cfg, got)
	}
}
