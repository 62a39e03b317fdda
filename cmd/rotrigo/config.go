package main

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the rotrigo command. It is read from an
// optional YAML file; flags given on the command line take precedence.
type Config struct {
	DataDir   string    `yaml:"data_dir" default:"./rotrigo_data"`
	BatchSize int       `yaml:"batch_size" default:"1000"`
	Log       LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

// LoadConfig reads the YAML file at path, if any, and fills in defaults for
// everything it leaves unset.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}
	return cfg, nil
}
