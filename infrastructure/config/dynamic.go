package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DynamicConfig represents runtime-changeable tuning, loaded from a
// YAML file that operators can edit without restarting the server
type DynamicConfig struct {
	Features    Features          `yaml:"features"`
	Maintenance MaintenanceTuning `yaml:"maintenance"`
	Render      RenderTuning      `yaml:"render"`
	Metadata    ConfigMetadata    `yaml:"metadata"`
}

// Features holds runtime feature flags
type Features struct {
	EnableWebSocket bool `yaml:"enableWebSocket"`
	EnableRendering bool `yaml:"enableRendering"`
}

// MaintenanceTuning tunes the background forgetting loop
type MaintenanceTuning struct {
	SweepIntervalSeconds int     `yaml:"sweepIntervalSeconds"`
	PruneThreshold       float64 `yaml:"pruneThreshold"`
	DecayRatePerHour     float64 `yaml:"decayRatePerHour"`
}

// RenderTuning overrides visualization colors per node type and
// relation. Unlisted types fall back to the renderer's defaults.
type RenderTuning struct {
	NodeColors map[string]string `yaml:"nodeColors"`
	EdgeColors map[string]string `yaml:"edgeColors"`
}

// ConfigMetadata holds metadata about the configuration
type ConfigMetadata struct {
	Version   string    `yaml:"version"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// DefaultDynamicConfig returns the tuning used when no file is present
func DefaultDynamicConfig() *DynamicConfig {
	return &DynamicConfig{
		Features: Features{
			EnableWebSocket: true,
			EnableRendering: true,
		},
		Maintenance: MaintenanceTuning{
			SweepIntervalSeconds: 300,
			PruneThreshold:       0.1,
			DecayRatePerHour:     0.35,
		},
		Metadata: ConfigMetadata{Version: "1.0.0"},
	}
}

// Validate rejects tuning that would break the maintenance loop
func (c *DynamicConfig) Validate() error {
	if c.Maintenance.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("sweepIntervalSeconds must be positive")
	}
	if c.Maintenance.PruneThreshold < 0 || c.Maintenance.PruneThreshold > 1 {
		return fmt.Errorf("pruneThreshold must be in [0, 1]")
	}
	if c.Maintenance.DecayRatePerHour < 0 {
		return fmt.Errorf("decayRatePerHour cannot be negative")
	}
	return nil
}

// LoadDynamicConfig loads the tuning file. A missing file yields the
// defaults rather than an error.
func LoadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDynamicConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultDynamicConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveDynamicConfig writes the tuning file atomically
func SaveDynamicConfig(path string, config *DynamicConfig) error {
	config.Metadata.UpdatedAt = time.Now()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
