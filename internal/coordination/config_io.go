package coordination

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML-encoded Config from path, starting from
// DefaultConfig so a file that only overrides a handful of fields (the
// common case: just enabled/listen_addr) still produces complete timeouts.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coordination: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("coordination: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating or truncating the file.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("coordination: marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("coordination: writing config %s: %w", path, err)
	}
	return nil
}

// LoadClientConfig reads a YAML-encoded ClientConfig from path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coordination: reading client config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("coordination: parsing client config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveClientConfig writes cfg to path as YAML, creating or truncating the file.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("coordination: marshalling client config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("coordination: writing client config %s: %w", path, err)
	}
	return nil
}
