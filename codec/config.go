package codec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults the CLI and bridge services load from a YAML
// file rather than repeating as flags everywhere: the default scale, and
// knobs for the domain-stack services built on top of the pure codec.
// DefaultSRID is read and written with the file, but the CLI and bridge
// do not use it: they take the SRID from the -srid flag.
type Config struct {
	DefaultSRID  uint32       `yaml:"defaultSRID"`
	DefaultScale uint32       `yaml:"defaultScale"`
	Batch        BatchConfig  `yaml:"batch"`
	Bridge       BridgeConfig `yaml:"bridge"`
}

// BatchConfig controls codec.EncodeBatch/DecodeBatch fan-out.
type BatchConfig struct {
	MaxConcurrency int `yaml:"maxConcurrency"`
}

// BridgeConfig configures the MQTT bridge (package bridge).
type BridgeConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"clientId"`
	InTopicPrefix  string `yaml:"inTopicPrefix"`
	OutTopicPrefix string `yaml:"outTopicPrefix"`
}

// LoadConfig loads a Config from a YAML file, following mesh's
// config_loader.go shape: read, unmarshal, fill documented defaults for
// anything left zero. No field is required, so nothing else is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyConfigDefaults(&config)
	return &config, nil
}

// applyConfigDefaults fills zero-valued fields with the documented
// defaults (spec §3 scale default, §5 resource model).
func applyConfigDefaults(config *Config) {
	if config.DefaultScale == 0 {
		config.DefaultScale = DefaultScale
	}
	if config.Batch.MaxConcurrency <= 0 {
		config.Batch.MaxConcurrency = 4
	}
	if config.Bridge.InTopicPrefix == "" {
		config.Bridge.InTopicPrefix = "geofc/in"
	}
	if config.Bridge.OutTopicPrefix == "" {
		config.Bridge.OutTopicPrefix = "geofc/out"
	}
}

// SaveConfig writes a Config to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
