package flock

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Inference   InferenceConfig   `toml:"inference"`
}

type CoordinatorConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
}

type InferenceConfig struct {
	URL string `toml:"url"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
